package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/checkincode"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/qr"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
)

// exportTimeLayout is how timestamps appear in the CSV export.
const exportTimeLayout = "2006-01-02 15:04:05"

// AdminService exposes roster maintenance and reporting.
type AdminService struct {
	store repository.Store
}

// NewAdminService constructs an AdminService.
func NewAdminService(store repository.Store) *AdminService {
	return &AdminService{store: store}
}

// ListParticipants returns every entrant, newest first.
func (s *AdminService) ListParticipants(ctx context.Context) ([]model.Entrant, error) {
	return s.store.List(ctx)
}

// Stats returns the dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (model.Stats, error) {
	return s.store.Stats(ctx)
}

// QRCodes returns name, code and QR image for every entrant.
func (s *AdminService) QRCodes(ctx context.Context) ([]model.QRCodeEntry, error) {
	entrants, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]model.QRCodeEntry, 0, len(entrants))
	for _, e := range entrants {
		entries = append(entries, model.QRCodeEntry{
			Name:        e.Name,
			CheckinCode: e.CheckinCode,
			QRData:      e.QRData,
		})
	}
	return entries, nil
}

// QRImage renders the PNG for an existing entrant's code.
func (s *AdminService) QRImage(ctx context.Context, code string) ([]byte, error) {
	code = checkincode.Normalize(code)
	if !checkincode.Valid(code) {
		return nil, fmt.Errorf("%w: malformed check-in code", ErrInvalidInput)
	}
	if _, err := s.store.FindByCode(ctx, code); err != nil {
		return nil, err
	}
	return qr.PNG(code)
}

// DeleteParticipant removes one entrant.
func (s *AdminService) DeleteParticipant(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: participant id is required", ErrInvalidInput)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "participant deleted", "id", id)
	return nil
}

// ClearParticipants removes the whole roster.
func (s *AdminService) ClearParticipants(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "participants cleared", "removed", n)
	return n, nil
}

// ExportCSV writes the roster as CSV. A UTF-8 BOM is written first so that
// Excel detects the encoding of non-ASCII names.
func (s *AdminService) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	entrants, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}

	if _, err := io.WriteString(w, "\xEF\xBB\xBF"); err != nil {
		return 0, fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	header := []string{"name", "email", "checkin_code", "checked_in", "checkin_time", "created_at"}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	for _, e := range entrants {
		checkedIn := "no"
		checkinTime := ""
		if e.Arrived() {
			checkedIn = "yes"
			checkinTime = e.CheckinTime.Local().Format(exportTimeLayout)
		}
		row := []string{
			e.Name,
			e.Email,
			e.CheckinCode,
			checkedIn,
			checkinTime,
			e.CreatedAt.Local().Format(exportTimeLayout),
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(entrants), nil
}

// ExportFilename names an export taken at t.
func ExportFilename(t time.Time) string {
	return "participants_export_" + t.Format("20060102_150405") + ".csv"
}
