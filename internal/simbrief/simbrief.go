// Package simbrief fetches the pilot's latest operational flight plan from
// the SimBrief API, used to prefill PDC requests.
package simbrief

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const DefaultFetcherURL = "https://www.simbrief.com/api/xml.fetcher.php"

var ErrNoUserID = errors.New("simbrief: user id not configured")

// OFP is the subset of the SimBrief flight plan this client uses.
type OFP struct {
	General struct {
		ICAOAirline  string `json:"icao_airline"`
		FlightNumber string `json:"flight_number"`
	} `json:"general"`
	Origin struct {
		ICAO string `json:"icao_code"`
	} `json:"origin"`
	Destination struct {
		ICAO string `json:"icao_code"`
	} `json:"destination"`
	Aircraft struct {
		ICAOCode string `json:"icaocode"`
	} `json:"aircraft"`
	ATC struct {
		Callsign string `json:"callsign"`
	} `json:"atc"`
}

type Client struct {
	logger     zerolog.Logger
	httpClient *http.Client
	fetcherURL string
}

type Option func(*Client)

func WithFetcherURL(url string) Option {
	return func(c *Client) { c.fetcherURL = url }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

func NewClient(logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		logger:     logger,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		fetcherURL: DefaultFetcherURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchOFP retrieves the latest flight plan for a SimBrief user id.
func (c *Client) FetchOFP(ctx context.Context, userID string) (*OFP, error) {
	if userID == "" {
		return nil, ErrNoUserID
	}

	params := url.Values{
		"userid": {userID},
		"json":   {"1"},
	}

	c.logger.Info().Str("userid", userID).Msg("fetching SimBrief OFP")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fetcherURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build simbrief request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch simbrief ofp: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("simbrief returned status %d", resp.StatusCode)
	}

	var ofp OFP
	if err := json.NewDecoder(resp.Body).Decode(&ofp); err != nil {
		return nil, fmt.Errorf("decode simbrief ofp: %w", err)
	}

	return &ofp, nil
}
