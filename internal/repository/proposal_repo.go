package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"freework/internal/model"
	"freework/pkg/metrics"
)

type ProposalRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProposalRepository(db *pgxpool.Pool, logger *zap.Logger) *ProposalRepository {
	return &ProposalRepository{
		db:     db,
		logger: logger,
	}
}

const proposalDetailColumns = `
    p.id,
    p.project_id,
    p.freelancer_id,
    p.message,
    p.proposed_budget,
    p.estimated_duration,
    p.status,
    p.created_at,
    COALESCE(pr.title, ''),
    COALESCE(f.full_name, ''),
    COALESCE(c.name, '')
`

func scanProposal(row pgx.Row, p *model.Proposal) error {
	return row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.FreelancerID,
		&p.Message,
		&p.ProposedBudget,
		&p.EstimatedDuration,
		&p.Status,
		&p.CreatedAt,
		&p.ProjectTitle,
		&p.FreelancerName,
		&p.CompanyName,
	)
}

// Insert persists a pending proposal. Returns ErrDuplicate when the
// freelancer already has one on the project.
func (r *ProposalRepository) Insert(ctx context.Context, p *model.Proposal) error {
	r.logger.Debug("Inserting proposal",
		zap.Int("project_id", p.ProjectID),
		zap.Int("freelancer_id", p.FreelancerID),
	)

	query := `
        INSERT INTO proposals (project_id, freelancer_id, message, proposed_budget, estimated_duration, status)
        VALUES ($1, $2, $3, $4, $5, 'pending')
        RETURNING id, status, created_at
    `
	err := r.db.QueryRow(ctx, query,
		p.ProjectID,
		p.FreelancerID,
		p.Message,
		p.ProposedBudget,
		p.EstimatedDuration,
	).Scan(&p.ID, &p.Status, &p.CreatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		r.logger.Error("Failed to insert proposal", zap.Error(err))
		return err
	}

	r.logger.Info("Proposal inserted",
		zap.Int("id", p.ID),
		zap.Int("project_id", p.ProjectID),
	)
	return nil
}

// GetByID returns a proposal with its display fields joined in.
func (r *ProposalRepository) GetByID(ctx context.Context, id int) (*model.Proposal, error) {
	query := `
        SELECT ` + proposalDetailColumns + `
        FROM proposals p
        JOIN projects pr ON pr.id = p.project_id
        LEFT JOIN users f ON f.id = p.freelancer_id
        LEFT JOIN companies c ON c.user_id = pr.company_id
        WHERE p.id = $1
    `
	var p model.Proposal
	if err := scanProposal(r.db.QueryRow(ctx, query, id), &p); err != nil {
		return nil, mapNoRows(err)
	}
	return &p, nil
}

// FindByProjectAndFreelancer is the unique-pair point read.
func (r *ProposalRepository) FindByProjectAndFreelancer(ctx context.Context, projectID, freelancerID int) (*model.Proposal, error) {
	query := `
        SELECT ` + proposalDetailColumns + `
        FROM proposals p
        JOIN projects pr ON pr.id = p.project_id
        LEFT JOIN users f ON f.id = p.freelancer_id
        LEFT JOIN companies c ON c.user_id = pr.company_id
        WHERE p.project_id = $1 AND p.freelancer_id = $2
    `
	var p model.Proposal
	if err := scanProposal(r.db.QueryRow(ctx, query, projectID, freelancerID), &p); err != nil {
		return nil, mapNoRows(err)
	}
	return &p, nil
}

// ProposalFilter narrows List. FreelancerID and CompanyID carry the
// caller's mandatory visibility scope; zero means unscoped (admin).
type ProposalFilter struct {
	ProjectID    int
	Status       string
	FreelancerID int
	CompanyID    int
	Limit        int
}

func (r *ProposalRepository) List(ctx context.Context, f ProposalFilter) ([]model.Proposal, error) {
	query := `
        SELECT ` + proposalDetailColumns + `
        FROM proposals p
        JOIN projects pr ON pr.id = p.project_id
        LEFT JOIN users f ON f.id = p.freelancer_id
        LEFT JOIN companies c ON c.user_id = pr.company_id
        WHERE 1=1
    `
	args := []any{}

	if f.ProjectID != 0 {
		args = append(args, f.ProjectID)
		query += fmt.Sprintf(" AND p.project_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if f.FreelancerID != 0 {
		args = append(args, f.FreelancerID)
		query += fmt.Sprintf(" AND p.freelancer_id = $%d", len(args))
	}
	if f.CompanyID != 0 {
		args = append(args, f.CompanyID)
		query += fmt.Sprintf(" AND pr.company_id = $%d", len(args))
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

	proposals := []model.Proposal{}
	for rows.Next() {
		var p model.Proposal
		if err := scanProposal(rows, &p); err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}

	return proposals, rows.Err()
}

// Reject flips a single pending proposal to rejected. No cascade.
func (r *ProposalRepository) Reject(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE proposals SET status = 'rejected' WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProposalNotPending
	}
	return nil
}

// Accept runs the whole acceptance cascade in one transaction:
//
//  1. conditional project update (WHERE status = 'open') — the gate;
//     zero rows affected means the race was lost or the project moved
//     on, and nothing below happens
//  2. reject every other pending proposal on the project
//  3. create the contract from the accepted proposal's terms
//  4. flip the accepted proposal itself
//
// Any failure rolls the whole cascade back.
func (r *ProposalRepository) Accept(ctx context.Context, id int, terms string) (contractID int, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQueryDuration("accept", "proposals", time.Since(start))
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		projectID      int
		freelancerID   int
		companyID      int
		proposedBudget float64
	)
	err = tx.QueryRow(ctx, `
        SELECT p.project_id, p.freelancer_id, pr.company_id, p.proposed_budget
        FROM proposals p
        JOIN projects pr ON pr.id = p.project_id
        WHERE p.id = $1
    `, id).Scan(&projectID, &freelancerID, &companyID, &proposedBudget)
	if err != nil {
		return 0, mapNoRows(err)
	}

	tag, err := tx.Exec(ctx, `
        UPDATE projects
        SET freelancer_id = $1, status = 'in_progress', updated_at = NOW()
        WHERE id = $2 AND status = 'open'
    `, freelancerID, projectID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrProjectNotOpen
	}

	_, err = tx.Exec(ctx, `
        UPDATE proposals
        SET status = 'rejected'
        WHERE project_id = $1 AND status = 'pending' AND id <> $2
    `, projectID, id)
	if err != nil {
		return 0, err
	}

	err = tx.QueryRow(ctx, `
        INSERT INTO contracts (project_id, company_id, freelancer_id, budget, start_date, terms)
        VALUES ($1, $2, $3, $4, NOW(), $5)
        RETURNING id
    `, projectID, companyID, freelancerID, proposedBudget, terms).Scan(&contractID)
	if err != nil {
		return 0, err
	}

	tag, err = tx.Exec(ctx,
		`UPDATE proposals SET status = 'accepted' WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrProposalNotPending
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit accept tx: %w", err)
	}

	r.logger.Info("Proposal accepted",
		zap.Int("proposal_id", id),
		zap.Int("project_id", projectID),
		zap.Int("contract_id", contractID),
	)
	return contractID, nil
}
