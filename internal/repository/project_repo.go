package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"freework/internal/model"
	"freework/pkg/metrics"
)

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Inserting project",
		zap.Int("company_id", p.CompanyID),
		zap.String("title", p.Title),
	)

	query := `
        INSERT INTO projects (company_id, title, description, budget, deadline, required_skills, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		p.CompanyID,
		p.Title,
		p.Description,
		p.Budget,
		p.Deadline,
		p.RequiredSkills,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return err
	}

	r.logger.Info("Project inserted",
		zap.Int("id", p.ID),
		zap.Int("company_id", p.CompanyID),
	)
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int) (*model.Project, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQueryDuration("get_by_id", "projects", time.Since(start))
	}()

	query := `
        SELECT
            p.id,
            p.company_id,
            p.title,
            p.description,
            p.budget,
            p.deadline,
            p.required_skills,
            p.status,
            p.freelancer_id,
            p.created_at,
            p.updated_at,
            COALESCE(c.name, '')
        FROM projects p
        LEFT JOIN companies c ON c.user_id = p.company_id
        WHERE p.id = $1
    `
	var p model.Project
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.CompanyID,
		&p.Title,
		&p.Description,
		&p.Budget,
		&p.Deadline,
		&p.RequiredSkills,
		&p.Status,
		&p.FreelancerID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.CompanyName,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &p, nil
}

// ProjectFilter narrows List. Zero values mean "no constraint".
type ProjectFilter struct {
	Status    string
	Skill     string
	CompanyID int
	Limit     int
}

func (r *ProjectRepository) List(ctx context.Context, f ProjectFilter) ([]model.Project, error) {
	query := `
        SELECT
            p.id,
            p.company_id,
            p.title,
            p.description,
            p.budget,
            p.deadline,
            p.required_skills,
            p.status,
            p.freelancer_id,
            p.created_at,
            p.updated_at,
            COALESCE(c.name, '')
        FROM projects p
        LEFT JOIN companies c ON c.user_id = p.company_id
        WHERE 1=1
    `
	args := []any{}

	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if f.Skill != "" {
		args = append(args, f.Skill)
		query += fmt.Sprintf(" AND $%d = ANY(p.required_skills)", len(args))
	}
	if f.CompanyID != 0 {
		args = append(args, f.CompanyID)
		query += fmt.Sprintf(" AND p.company_id = $%d", len(args))
	}

	query += " ORDER BY p.created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		err := rows.Scan(
			&p.ID,
			&p.CompanyID,
			&p.Title,
			&p.Description,
			&p.Budget,
			&p.Deadline,
			&p.RequiredSkills,
			&p.Status,
			&p.FreelancerID,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.CompanyName,
		)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// Update rewrites the mutable fields. The status guard keeps edits out
// of projects that already left the open state.
func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	query := `
        UPDATE projects
        SET title = $1, description = $2, budget = $3, deadline = $4,
            required_skills = $5, updated_at = NOW()
        WHERE id = $6 AND status = 'open'
    `
	tag, err := r.db.Exec(ctx, query,
		p.Title,
		p.Description,
		p.Budget,
		p.Deadline,
		p.RequiredSkills,
		p.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Int("id", p.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotOpen
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Int("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.logger.Info("Project deleted", zap.Int("id", id))
	return nil
}
