// Package model defines the core domain types for the event check-in system.
package model

import "time"

// Entrant is a registered person with a unique check-in code.
type Entrant struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	EmailKey    string     `json:"-"`
	CheckinCode string     `json:"checkin_code"`
	QRData      string     `json:"qr_data"`
	CheckedIn   bool       `json:"checked_in"`
	CheckinTime *time.Time `json:"checkin_time"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Arrived reports whether the entrant has already checked in.
func (e *Entrant) Arrived() bool {
	return e.CheckedIn && e.CheckinTime != nil
}

// SkippedRow is a roster row rejected because its email is already taken.
type SkippedRow struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// IngestResult summarises one roster upload.
type IngestResult struct {
	Accepted []Entrant
	Skipped  []SkippedRow
}

// CheckinKind classifies the outcome of a check-in attempt.
type CheckinKind string

const (
	CheckinSuccess   CheckinKind = "SUCCESS"
	CheckinDuplicate CheckinKind = "DUPLICATE"
	CheckinNotFound  CheckinKind = "NOT_FOUND"
)

// CheckinResult is the outcome of a check-in attempt. Entrant is nil for
// CheckinNotFound.
type CheckinResult struct {
	Kind    CheckinKind
	Entrant *Entrant
}

// Stats holds the dashboard counters.
type Stats struct {
	Total        int `json:"total"`
	CheckedIn    int `json:"checkedIn"`
	NotCheckedIn int `json:"notCheckedIn"`
}

// QRCodeEntry is one row of the batch QR download.
type QRCodeEntry struct {
	Name        string `json:"name"`
	CheckinCode string `json:"checkin_code"`
	QRData      string `json:"qr_data"`
}

// DispatchFailure records one recipient a notification could not reach.
type DispatchFailure struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Error string `json:"error"`
}

// DispatchReport summarises a notification run.
type DispatchReport struct {
	Sent   int
	Failed int
	Total  int
	Errors []DispatchFailure
}

// ─── Request / response payloads ─────────────────────────────────────────────

// CheckinRequest is the payload for POST /api/checkin.
type CheckinRequest struct {
	Code string `json:"code"`
}

// CheckinParticipant is the entrant view returned by check-in.
type CheckinParticipant struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	CheckinTime *time.Time `json:"checkin_time"`
}

// CheckinResponse is the JSON body for a found code.
type CheckinResponse struct {
	Success     bool                `json:"success"`
	IsDuplicate bool                `json:"isDuplicate"`
	Message     string              `json:"message"`
	Participant *CheckinParticipant `json:"participant,omitempty"`
}

// UploadResponse is the JSON body for POST /api/upload.
type UploadResponse struct {
	Success      bool         `json:"success"`
	Count        int          `json:"count"`
	SkippedCount int          `json:"skippedCount"`
	Participants []Entrant    `json:"participants"`
	Skipped      []SkippedRow `json:"skipped"`
}

// NotifyRequest selects the entrants a notification goes to. An empty list
// means everyone.
type NotifyRequest struct {
	ParticipantIDs []string `json:"participantIds"`
}

// NotifyResponse is the JSON body for the notification endpoints.
type NotifyResponse struct {
	Success bool              `json:"success"`
	Sent    int               `json:"sent"`
	Failed  int               `json:"failed"`
	Total   int               `json:"total"`
	Errors  []DispatchFailure `json:"errors,omitempty"`
	Message string            `json:"message"`
}

// MessageResponse is a plain success/message envelope.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// DeleteAllResponse is returned when the roster is cleared.
type DeleteAllResponse struct {
	Success bool   `json:"success"`
	Removed int64  `json:"removed"`
	Message string `json:"message"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
