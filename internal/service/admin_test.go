package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
	"github.com/Shivanand-hulikatti/event-checkin/internal/testutil"
)

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	testutil.SeedEntrant(t, store, "Alice", "a@x.com", "AAA111")
	testutil.SeedEntrant(t, store, "王小明", "ming@x.com", "BBB222")
	if _, _, err := store.MarkCheckedIn(ctx, "AAA111", time.Now()); err != nil {
		t.Fatalf("MarkCheckedIn: %v", err)
	}
	svc := service.NewAdminService(store)

	var buf bytes.Buffer
	n, err := svc.ExportCSV(ctx, &buf)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if n != 2 {
		t.Errorf("exported %d rows, want 2", n)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\xEF\xBB\xBF")) {
		t.Error("export is missing the UTF-8 BOM")
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[3:])).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2", len(records))
	}
	if strings.Join(records[0], ",") != "name,email,checkin_code,checked_in,checkin_time,created_at" {
		t.Errorf("unexpected header %v", records[0])
	}

	byCode := map[string][]string{}
	for _, rec := range records[1:] {
		byCode[rec[2]] = rec
	}
	if byCode["AAA111"][3] != "yes" || byCode["AAA111"][4] == "" {
		t.Errorf("checked-in row = %v", byCode["AAA111"])
	}
	if byCode["BBB222"][3] != "no" || byCode["BBB222"][4] != "" || byCode["BBB222"][0] != "王小明" {
		t.Errorf("pending row = %v", byCode["BBB222"])
	}
}

func TestQRImage(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	testutil.SeedEntrant(t, store, "Alice", "a@x.com", "QRQR01")
	svc := service.NewAdminService(store)

	png, err := svc.QRImage(ctx, "qrqr01")
	if err != nil {
		t.Fatalf("QRImage: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("QRImage did not return a PNG")
	}

	if _, err := svc.QRImage(ctx, "ZZZZZZ"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown code error = %v, want ErrNotFound", err)
	}
	if _, err := svc.QRImage(ctx, "bad!"); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("malformed code error = %v, want ErrInvalidInput", err)
	}
}

func TestQRCodesAndClear(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	testutil.SeedEntrant(t, store, "Alice", "a@x.com", "AAA111")
	testutil.SeedEntrant(t, store, "Bob", "b@x.com", "BBB222")
	svc := service.NewAdminService(store)

	entries, err := svc.QRCodes(ctx)
	if err != nil {
		t.Fatalf("QRCodes: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.QRData == "" || e.CheckinCode == "" || e.Name == "" {
			t.Errorf("incomplete entry %+v", e)
		}
	}

	n, err := svc.ClearParticipants(ctx)
	if err != nil || n != 2 {
		t.Fatalf("ClearParticipants = %d, %v", n, err)
	}
	if err := svc.DeleteParticipant(ctx, " "); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("blank id error = %v, want ErrInvalidInput", err)
	}
}
