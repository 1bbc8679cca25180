// Package repository keeps analysis records in memory and ranks finished
// analyses by ATS score.
package repository

import (
	"context"

	"github.com/okian/atscore/internal/domain/model"
)

// Store provides read/write access to analysis records and the leaderboard.
type Store interface {
	// Put inserts or replaces a record. Finished records with a report are
	// ranked; any other state removes the id from the ranking.
	Put(ctx context.Context, rec model.Record) error

	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Record, error)

	// Delete removes the record for id. Returns ErrNotFound if it is unknown.
	Delete(ctx context.Context, id string) error

	// Rank returns the leaderboard entry for id. Returns ErrNotFound if the
	// analysis is unknown or not finished.
	Rank(ctx context.Context, id string) (model.Entry, error)

	// TopN returns the top-n entries ordered by score desc, then id asc.
	TopN(ctx context.Context, n int) ([]model.Entry, error)

	// Count returns the number of records held.
	Count(ctx context.Context) int

	// Ranked returns the number of entries on the leaderboard.
	Ranked(ctx context.Context) int
}
