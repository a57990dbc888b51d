package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
)

// AdminHandler serves the dashboard and roster maintenance endpoints.
type AdminHandler struct {
	svc *service.AdminService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// ListParticipants handles GET /api/admin/participants
func (h *AdminHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	entrants, err := h.svc.ListParticipants(r.Context())
	if err != nil {
		internalError(w, r, "failed to list participants", err)
		return
	}
	if entrants == nil {
		entrants = []model.Entrant{}
	}
	writeJSON(w, http.StatusOK, entrants)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		internalError(w, r, "failed to load stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// QRCodes handles GET /api/admin/qrcodes
func (h *AdminHandler) QRCodes(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.QRCodes(r.Context())
	if err != nil {
		internalError(w, r, "failed to list qr codes", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// QRImage handles GET /api/admin/qrcodes/{code}.png
func (h *AdminHandler) QRImage(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSuffix(chi.URLParam(r, "code"), ".png")

	png, err := h.svc.QRImage(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "participant not found")
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			internalError(w, r, "failed to render qr code", err)
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprint(len(png)))
	_, _ = w.Write(png)
}

// Export handles GET /api/admin/export
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := h.svc.ExportCSV(r.Context(), &buf); err != nil {
		internalError(w, r, "failed to export participants", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", service.ExportFilename(time.Now())))
	_, _ = w.Write(buf.Bytes())
}

// DeleteParticipant handles DELETE /api/admin/participants/{id}
func (h *AdminHandler) DeleteParticipant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteParticipant(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Participant not found")
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			internalError(w, r, "failed to delete participant", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true})
}

// ClearParticipants handles DELETE /api/admin/participants
func (h *AdminHandler) ClearParticipants(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ClearParticipants(r.Context())
	if err != nil {
		internalError(w, r, "failed to clear participants", err)
		return
	}
	writeJSON(w, http.StatusOK, model.DeleteAllResponse{
		Success: true,
		Removed: n,
		Message: "All participants cleared",
	})
}
