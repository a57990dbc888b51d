// Package testutil provides a fresh SQLite-backed store and seed helpers for
// tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-checkin/internal/database"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/qr"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/roster"
)

// NewStore opens an empty store in the test's temp dir. It is closed when the
// test finishes.
func NewStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	store := repository.NewSQLiteStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// SeedEntrant inserts a pending entrant holding code and returns it.
func SeedEntrant(t *testing.T, store repository.Store, name, email, code string) model.Entrant {
	t.Helper()

	qrData, err := qr.DataURL(code)
	if err != nil {
		t.Fatalf("Failed to encode qr: %v", err)
	}
	e := model.Entrant{
		ID:          uuid.New().String(),
		Name:        name,
		Email:       email,
		EmailKey:    roster.EmailKey(email),
		CheckinCode: code,
		QRData:      qrData,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := store.InsertBatch(context.Background(), []model.Entrant{e}); err != nil {
		t.Fatalf("Failed to seed entrant: %v", err)
	}
	return e
}

// Count returns the number of stored entrants.
func Count(t *testing.T, store repository.Store) int {
	t.Helper()

	st, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Failed to count entrants: %v", err)
	}
	return st.Total
}

// SequenceGenerator returns a code generator that yields codes in order and
// then repeats the last one.
func SequenceGenerator(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := codes[min(i, len(codes)-1)]
		i++
		return code, nil
	}
}
