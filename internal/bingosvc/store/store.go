// Package store implements the relational persistence layer on pgx.
// Matrix and list fields are stored as JSON-encoded text columns; shared
// counters (prize pool, stats) are updated with in-place increments so
// concurrent requests never read-modify-write them from the application tier.
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUniqueViolation maps Postgres 23505 so callers can report conflicts.
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrStaleVersion is returned when an optimistic version check fails:
	// another writer updated the row between read and write.
	ErrStaleVersion = errors.New("stale game version")

	// ErrNotActive is returned when a mutation targets a game that is no
	// longer (or not yet) active.
	ErrNotActive = errors.New("game is not active")

	// ErrNoPendingWinner is returned when a payout targets a winner that is
	// missing or already paid.
	ErrNoPendingWinner = errors.New("winner has no pending payout")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
