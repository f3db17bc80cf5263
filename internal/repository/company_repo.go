package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"freework/internal/model"
)

type CompanyRepository struct {
	db *pgxpool.Pool
}

func NewCompanyRepository(db *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Insert creates the profile row behind a company-role user.
func (r *CompanyRepository) Insert(ctx context.Context, c *model.Company) error {
	query := `
        INSERT INTO companies (user_id, name, description, website, created_at)
        VALUES ($1, $2, $3, $4, NOW())
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		c.UserID,
		c.Name,
		c.Description,
		c.Website,
	).Scan(&c.ID, &c.CreatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *CompanyRepository) GetByUserID(ctx context.Context, userID int) (*model.Company, error) {
	query := `
        SELECT id, user_id, name, description, website, created_at
        FROM companies
        WHERE user_id = $1
    `
	var c model.Company
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Description,
		&c.Website,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &c, nil
}
