// Package repository implements persistence for entrants. Two backends share
// the Store interface: PostgreSQL through pgx and SQLite through database/sql.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

// ErrNotFound is returned when a requested entrant does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint,
// typically because a concurrent upload claimed the same email or code.
var ErrConflict = errors.New("unique constraint violated")

// Store is the persistence capability shared by the services.
type Store interface {
	// FindByEmailKey returns the entrant whose folded email equals key.
	FindByEmailKey(ctx context.Context, key string) (*model.Entrant, error)
	// CodeExists reports whether any entrant already holds code.
	CodeExists(ctx context.Context, code string) (bool, error)
	// InsertBatch persists all entrants in one transaction or none of them.
	InsertBatch(ctx context.Context, entrants []model.Entrant) error
	// FindByCode returns the entrant holding code.
	FindByCode(ctx context.Context, code string) (*model.Entrant, error)
	// MarkCheckedIn flips a pending entrant to checked in at the given time.
	// The returned bool is true only for the call that performed the
	// transition; otherwise the stored entrant is returned unchanged.
	MarkCheckedIn(ctx context.Context, code string, at time.Time) (*model.Entrant, bool, error)

	List(ctx context.Context) ([]model.Entrant, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Entrant, error)
	Stats(ctx context.Context) (model.Stats, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

const entrantColumns = `id, name, email, email_key, checkin_code, qr_data, checked_in, checkin_time, created_at`
