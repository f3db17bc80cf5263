package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a point read matches no row.
	ErrNotFound = errors.New("row not found")

	// ErrDuplicate is returned when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate row")

	// ErrProjectNotOpen is returned when the conditional project update
	// gating the acceptance cascade affected zero rows.
	ErrProjectNotOpen = errors.New("project no longer open for proposals")

	// ErrProposalNotPending is returned when a status transition targets
	// a proposal that already left the pending state.
	ErrProposalNotPending = errors.New("proposal is not pending")

	// ErrAlreadyCompleted is returned when a contract is completed twice.
	ErrAlreadyCompleted = errors.New("contract already completed")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
