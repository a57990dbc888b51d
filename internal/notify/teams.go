package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

// TeamsPayload is the JSON document posted per entrant.
type TeamsPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CheckinCode string `json:"checkin_code"`
	QRData      string `json:"qr_data"`
}

// PayloadFor builds the webhook body for one entrant.
func PayloadFor(e model.Entrant) TeamsPayload {
	return TeamsPayload{
		Name:        e.Name,
		Email:       e.Email,
		CheckinCode: e.CheckinCode,
		QRData:      e.QRData,
	}
}

// TeamsClient posts to a Teams / Power Automate HTTP trigger.
type TeamsClient struct {
	url  string
	http *http.Client
}

// NewTeamsClient constructs a TeamsClient. A nil hc gets a client with a
// 30 second timeout.
func NewTeamsClient(url string, hc *http.Client) *TeamsClient {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &TeamsClient{url: url, http: hc}
}

// Post sends one payload. Any 2xx status, including 202 Accepted, counts as
// delivered.
func (c *TeamsClient) Post(ctx context.Context, payload TeamsPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal teams payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build teams request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post teams webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
