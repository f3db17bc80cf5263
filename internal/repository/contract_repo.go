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

type ContractRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewContractRepository(db *pgxpool.Pool, logger *zap.Logger) *ContractRepository {
	return &ContractRepository{
		db:     db,
		logger: logger,
	}
}

const contractDetailColumns = `
    ct.id,
    ct.project_id,
    ct.company_id,
    ct.freelancer_id,
    ct.budget,
    ct.start_date,
    ct.end_date,
    ct.terms,
    ct.is_completed,
    COALESCE(pr.title, ''),
    COALESCE(c.name, ''),
    COALESCE(f.full_name, '')
`

func scanContract(row pgx.Row, c *model.Contract) error {
	return row.Scan(
		&c.ID,
		&c.ProjectID,
		&c.CompanyID,
		&c.FreelancerID,
		&c.Budget,
		&c.StartDate,
		&c.EndDate,
		&c.Terms,
		&c.IsCompleted,
		&c.ProjectTitle,
		&c.CompanyName,
		&c.FreelancerName,
	)
}

func (r *ContractRepository) GetByID(ctx context.Context, id int) (*model.Contract, error) {
	query := `
        SELECT ` + contractDetailColumns + `
        FROM contracts ct
        JOIN projects pr ON pr.id = ct.project_id
        LEFT JOIN companies c ON c.user_id = ct.company_id
        LEFT JOIN users f ON f.id = ct.freelancer_id
        WHERE ct.id = $1
    `
	var c model.Contract
	if err := scanContract(r.db.QueryRow(ctx, query, id), &c); err != nil {
		return nil, mapNoRows(err)
	}
	return &c, nil
}

// ListByParty returns contracts where the user is either side, newest first.
func (r *ContractRepository) ListByParty(ctx context.Context, userID, limit int) ([]model.Contract, error) {
	query := `
        SELECT ` + contractDetailColumns + `
        FROM contracts ct
        JOIN projects pr ON pr.id = ct.project_id
        LEFT JOIN companies c ON c.user_id = ct.company_id
        LEFT JOIN users f ON f.id = ct.freelancer_id
        WHERE ct.company_id = $1 OR ct.freelancer_id = $1
        ORDER BY ct.start_date DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := []model.Contract{}
	for rows.Next() {
		var c model.Contract
		if err := scanContract(rows, &c); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}

	return contracts, rows.Err()
}

// Complete flips the contract and cascades the project to completed in
// one transaction. The conditional update rejects a second completion
// with ErrAlreadyCompleted instead of silently succeeding.
func (r *ContractRepository) Complete(ctx context.Context, id int) error {
	start := time.Now()
	defer func() {
		metrics.RecordDBQueryDuration("complete", "contracts", time.Since(start))
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin complete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var projectID int
	err = tx.QueryRow(ctx, `
        UPDATE contracts
        SET is_completed = TRUE, end_date = NOW()
        WHERE id = $1 AND is_completed = FALSE
        RETURNING project_id
    `, id).Scan(&projectID)
	if err != nil {
		if mapNoRows(err) == ErrNotFound {
			// Zero rows: either absent or already completed.
			var exists bool
			if checkErr := r.db.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM contracts WHERE id = $1)`, id).Scan(&exists); checkErr != nil {
				return checkErr
			}
			if exists {
				return ErrAlreadyCompleted
			}
			return ErrNotFound
		}
		return err
	}

	_, err = tx.Exec(ctx, `
        UPDATE projects
        SET status = 'completed', updated_at = NOW()
        WHERE id = $1
    `, projectID)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit complete tx: %w", err)
	}

	r.logger.Info("Contract completed",
		zap.Int("contract_id", id),
		zap.Int("project_id", projectID),
	)
	return nil
}
