package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/testutil"
)

func newEntrant(name, email, code string) model.Entrant {
	return model.Entrant{
		ID:          uuid.New().String(),
		Name:        name,
		Email:       email,
		EmailKey:    email,
		CheckinCode: code,
		QRData:      "data:image/png;base64,",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestInsertBatchAndFind(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	batch := []model.Entrant{
		newEntrant("Alice", "a@x.com", "AAAAAA"),
		newEntrant("Bob", "b@x.com", "BBBBBB"),
	}
	if err := store.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	got, err := store.FindByEmailKey(ctx, "b@x.com")
	if err != nil {
		t.Fatalf("FindByEmailKey: %v", err)
	}
	if got.Name != "Bob" || got.CheckinCode != "BBBBBB" || got.CheckedIn || got.CheckinTime != nil {
		t.Errorf("unexpected entrant: %+v", got)
	}

	exists, err := store.CodeExists(ctx, "AAAAAA")
	if err != nil || !exists {
		t.Errorf("CodeExists(AAAAAA) = %v, %v; want true", exists, err)
	}
	exists, err = store.CodeExists(ctx, "ZZZZZZ")
	if err != nil || exists {
		t.Errorf("CodeExists(ZZZZZZ) = %v, %v; want false", exists, err)
	}

	if _, err := store.FindByCode(ctx, "ZZZZZZ"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("FindByCode(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestInsertBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	// Second row reuses the first row's code, so the whole batch must fail.
	batch := []model.Entrant{
		newEntrant("Alice", "a@x.com", "SAME01"),
		newEntrant("Bob", "b@x.com", "SAME01"),
	}
	err := store.InsertBatch(ctx, batch)
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("InsertBatch error = %v, want ErrConflict", err)
	}
	if n := testutil.Count(t, store); n != 0 {
		t.Errorf("expected no rows after failed batch, got %d", n)
	}
}

func TestInsertBatchEmailKeyConflict(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	testutil.SeedEntrant(t, store, "Alice", "a@x.com", "FIRST1")

	// A concurrent upload that slipped past the dedup check still hits the
	// unique email_key index.
	err := store.InsertBatch(ctx, []model.Entrant{
		newEntrant("Carol", "c@x.com", "CAROL1"),
		newEntrant("Alice again", "a@x.com", "AGAIN1"),
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("InsertBatch error = %v, want ErrConflict", err)
	}
	if n := testutil.Count(t, store); n != 1 {
		t.Errorf("store holds %d entrants, want 1", n)
	}
}

func TestMarkCheckedInOnce(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	testutil.SeedEntrant(t, store, "Alice", "a@x.com", "CHK001")

	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	e, ok, err := store.MarkCheckedIn(ctx, "CHK001", first)
	if err != nil || !ok {
		t.Fatalf("first MarkCheckedIn = %v, %v; want transition", ok, err)
	}
	if !e.CheckedIn || e.CheckinTime == nil || !e.CheckinTime.Equal(first) {
		t.Errorf("unexpected entrant after check-in: %+v", e)
	}

	e, ok, err = store.MarkCheckedIn(ctx, "CHK001", first.Add(time.Hour))
	if err != nil || ok {
		t.Fatalf("second MarkCheckedIn = %v, %v; want no transition", ok, err)
	}
	if !e.CheckinTime.Equal(first) {
		t.Errorf("check-in time changed to %v, want %v", e.CheckinTime, first)
	}

	if _, _, err := store.MarkCheckedIn(ctx, "NOPE00", first); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown code error = %v, want ErrNotFound", err)
	}
}

func TestStatsListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	alice := testutil.SeedEntrant(t, store, "Alice", "a@x.com", "AAA111")
	testutil.SeedEntrant(t, store, "Bob", "b@x.com", "BBB222")
	testutil.SeedEntrant(t, store, "Carol", "c@x.com", "CCC333")

	if _, _, err := store.MarkCheckedIn(ctx, "BBB222", time.Now()); err != nil {
		t.Fatalf("MarkCheckedIn: %v", err)
	}

	st, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st != (model.Stats{Total: 3, CheckedIn: 1, NotCheckedIn: 2}) {
		t.Errorf("Stats = %+v", st)
	}

	picked, err := store.ListByIDs(ctx, []string{alice.ID, "missing"})
	if err != nil {
		t.Fatalf("ListByIDs: %v", err)
	}
	if len(picked) != 1 || picked[0].Name != "Alice" {
		t.Errorf("ListByIDs = %+v", picked)
	}

	if err := store.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, alice.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List returned %d entrants, want 2", len(all))
	}

	n, err := store.DeleteAll(ctx)
	if err != nil || n != 2 {
		t.Errorf("DeleteAll = %d, %v; want 2", n, err)
	}
	if testutil.Count(t, store) != 0 {
		t.Error("store should be empty")
	}
}
