package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const StatusRequestURL = "https://www.hoppie.nl/acars/system/status.html"

// Status is the relay's system status document.
type Status struct {
	StatusCode     string      `json:"status_code"`
	SystemTime     string      `json:"system_time"`
	Message        string      `json:"message,omitempty"`
	LoadPercentage float32     `json:"system_load_percent"`
	UserCount      OnlineUsers `json:"online_users"`
	Notams         []string    `json:"notams"`
}

type OnlineUsers struct {
	IVAO   int
	None   int
	VATSIM int
}

// StatusNotams fetches the relay's current NOTAM list, shown to the pilot at
// connect time.
func (c *Connector) StatusNotams(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, StatusRequestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch relay status: %w", err)
	}
	defer resp.Body.Close()

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}

	return status.Notams, nil
}
