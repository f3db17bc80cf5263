package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"freework/internal/model"
)

type ReviewRepository struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Insert persists a review. Returns ErrDuplicate when the reviewer
// already reviewed this contract.
func (r *ReviewRepository) Insert(ctx context.Context, rv *model.Review) error {
	query := `
        INSERT INTO reviews (contract_id, reviewer_id, reviewed_id, rating, comment)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		rv.ContractID,
		rv.ReviewerID,
		rv.ReviewedID,
		rv.Rating,
		rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID returns a review with both party names joined in.
func (r *ReviewRepository) GetByID(ctx context.Context, id int) (*model.Review, error) {
	query := `
        SELECT
            rv.id,
            rv.contract_id,
            rv.reviewer_id,
            rv.reviewed_id,
            rv.rating,
            rv.comment,
            rv.created_at,
            COALESCE(u1.full_name, ''),
            COALESCE(u2.full_name, '')
        FROM reviews rv
        LEFT JOIN users u1 ON u1.id = rv.reviewer_id
        LEFT JOIN users u2 ON u2.id = rv.reviewed_id
        WHERE rv.id = $1
    `
	var rv model.Review
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rv.ID,
		&rv.ContractID,
		&rv.ReviewerID,
		&rv.ReviewedID,
		&rv.Rating,
		&rv.Comment,
		&rv.CreatedAt,
		&rv.ReviewerName,
		&rv.ReviewedName,
	)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &rv, nil
}

// ListForUser returns reviews received by a user, newest first.
func (r *ReviewRepository) ListForUser(ctx context.Context, reviewedID, limit int) ([]model.Review, error) {
	query := `
        SELECT
            rv.id,
            rv.contract_id,
            rv.reviewer_id,
            rv.reviewed_id,
            rv.rating,
            rv.comment,
            rv.created_at,
            COALESCE(u1.full_name, ''),
            COALESCE(u2.full_name, '')
        FROM reviews rv
        LEFT JOIN users u1 ON u1.id = rv.reviewer_id
        LEFT JOIN users u2 ON u2.id = rv.reviewed_id
        WHERE rv.reviewed_id = $1
        ORDER BY rv.created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, reviewedID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		err := rows.Scan(
			&rv.ID,
			&rv.ContractID,
			&rv.ReviewerID,
			&rv.ReviewedID,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
			&rv.ReviewerName,
			&rv.ReviewedName,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}

	return reviews, rows.Err()
}
