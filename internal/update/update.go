// Package update checks the project's release feed for a newer version.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/rs/zerolog"
)

const DefaultReleaseURL = "https://api.github.com/repos/simcpdlc/simcpdlc/releases/latest"

// Release describes the latest published release relative to the running
// build.
type Release struct {
	Version string
	URL     string
	Newer   bool
}

type Checker struct {
	logger     zerolog.Logger
	httpClient *http.Client
	releaseURL string
}

type Option func(*Checker)

func WithReleaseURL(url string) Option {
	return func(c *Checker) { c.releaseURL = url }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) { c.httpClient = client }
}

func NewChecker(logger zerolog.Logger, opts ...Option) *Checker {
	c := &Checker{
		logger:     logger,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		releaseURL: DefaultReleaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check fetches the latest release and compares it against the current
// version string.
func (c *Checker) Check(ctx context.Context, current string) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.releaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build release request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release feed returned status %d", resp.StatusCode)
	}

	var payload struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode release feed: %w", err)
	}

	latest := strings.TrimPrefix(payload.TagName, "v")
	newer, err := isNewer(latest, current)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("current", current).
		Str("latest", latest).
		Bool("newer", newer).
		Msg("update check complete")

	return &Release{Version: latest, URL: payload.HTMLURL, Newer: newer}, nil
}

func isNewer(latest, current string) (bool, error) {
	latestVersion, err := goversion.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("parse latest version %q: %w", latest, err)
	}
	currentVersion, err := goversion.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("parse current version %q: %w", current, err)
	}
	return latestVersion.GreaterThan(currentVersion), nil
}
