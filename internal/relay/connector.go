package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"simcpdlc/internal/message"
)

const (
	SayIntentionsRequestURL = "http://acars.sayintentions.ai/acars/system/connect.html"
	HoppieRequestURL        = "http://www.hoppie.nl/acars/system/connect.html"

	// Consecutive poll failures tolerated before a reconnection attempt.
	DefaultMaxFailures = 3

	requestTimeout = 15 * time.Second
)

// Connector talks to a Hoppie-compatible ACARS relay over HTTP. It tracks
// the credentials of the current connection and counts consecutive poll
// failures so the polling engine can decide when to reconnect.
type Connector struct {
	logger      zerolog.Logger
	client      *http.Client
	requestURL  string
	maxFailures int

	mu        sync.Mutex
	callsign  string
	logon     string
	connected bool
	failures  int
}

// Option mutates connector construction.
type Option func(*Connector)

// WithRequestURL overrides the relay endpoint, e.g. HoppieRequestURL or a
// test server.
func WithRequestURL(url string) Option {
	return func(c *Connector) { c.requestURL = url }
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connector) { c.client = client }
}

// WithMaxFailures sets the reconnection threshold.
func WithMaxFailures(n int) Option {
	return func(c *Connector) {
		if n > 0 {
			c.maxFailures = n
		}
	}
}

func NewConnector(logger zerolog.Logger, opts ...Option) *Connector {
	c := &Connector{
		logger:      logger,
		client:      &http.Client{Timeout: requestTimeout},
		requestURL:  SayIntentionsRequestURL,
		maxFailures: DefaultMaxFailures,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect validates the credentials with a ping request and binds them to
// the connector for the rest of the session.
func (c *Connector) Connect(ctx context.Context, callsign, logon string) error {
	if callsign == "" || logon == "" {
		return ErrMissingCreds
	}

	if _, err := c.rawRequest(ctx, callsign, logon, "SERVER", TypePing, ""); err != nil {
		return fmt.Errorf("relay connect: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.callsign = callsign
	c.logon = logon
	c.connected = true
	c.failures = 0

	c.logger.Info().Str("callsign", callsign).Msg("connected to relay")
	return nil
}

// Disconnect drops the logical connection. Credentials are kept so a manual
// reconnect can reuse them.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.failures = 0
	c.logger.Info().Msg("disconnected from relay")
}

func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Connector) Callsign() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callsign
}

// Failures returns the current consecutive-failure count.
func (c *Connector) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// ShouldReconnect reports whether the failure threshold has been reached and
// both callsign and logon code are known.
func (c *Connector) ShouldReconnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures >= c.maxFailures && c.callsign != "" && c.logon != ""
}

// Reconnect re-establishes the relay session with the stored credentials. On
// failure the connector is left disconnected so polling stops until the next
// manual reconnect.
func (c *Connector) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	callsign, logon := c.callsign, c.logon
	c.mu.Unlock()

	if callsign == "" || logon == "" {
		return ErrMissingCreds
	}

	c.logger.Info().Str("callsign", callsign).Msg("attempting relay reconnection")

	if _, err := c.rawRequest(ctx, callsign, logon, "SERVER", TypePing, ""); err != nil {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		return fmt.Errorf("relay reconnect: %w", err)
	}

	c.mu.Lock()
	c.connected = true
	c.failures = 0
	c.mu.Unlock()

	c.logger.Info().Str("callsign", callsign).Msg("relay reconnection successful")
	return nil
}

// Poll fetches queued messages for the connected callsign. Failures bump the
// consecutive-failure count; any success resets it.
func (c *Connector) Poll(ctx context.Context) ([]message.Protocol, error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	callsign, logon := c.callsign, c.logon
	c.mu.Unlock()

	data, err := c.rawRequest(ctx, callsign, logon, "SERVER", TypePoll, "")
	if err != nil {
		c.noteFailure()
		return nil, fmt.Errorf("relay poll: %w", err)
	}

	c.noteSuccess()
	return c.parseMessages(data), nil
}

func (c *Connector) SendCpdlc(ctx context.Context, recipient string, min int, rr message.ResponseRequirement, text string, mrn *int) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	callsign, logon := c.callsign, c.logon
	c.mu.Unlock()

	packet := message.BuildCpdlcPacket(min, mrn, rr, text)
	if _, err := c.rawRequest(ctx, callsign, logon, recipient, TypeCpdlc, packet); err != nil {
		return fmt.Errorf("relay send cpdlc: %w", err)
	}

	c.noteSuccess()
	return nil
}

func (c *Connector) SendTelex(ctx context.Context, recipient, text string) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	callsign, logon := c.callsign, c.logon
	c.mu.Unlock()

	if recipient == "" || text == "" {
		return fmt.Errorf("relay send telex from %s: empty recipient or body", callsign)
	}

	if _, err := c.rawRequest(ctx, callsign, logon, recipient, TypeTelex, text); err != nil {
		return fmt.Errorf("relay send telex: %w", err)
	}

	c.noteSuccess()
	return nil
}

func (c *Connector) noteFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	c.logger.Warn().
		Int("failures", c.failures).
		Int("max", c.maxFailures).
		Msg("relay request failed")
}

func (c *Connector) noteSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures > 0 {
		c.logger.Debug().Int("failures", c.failures).Msg("resetting failure count")
	}
	c.failures = 0
}

// rawRequest performs one relay exchange. The relay answers with a body
// starting in `ok` on success or `error {reason}` on failure.
func (c *Connector) rawRequest(ctx context.Context, callsign, logon, station string, requestType RequestType, content string) (string, error) {
	params := url.Values{
		"logon":  {logon},
		"from":   {callsign},
		"to":     {station},
		"type":   {string(requestType)},
		"packet": {content},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build relay request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send relay request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read relay response: %w", err)
	}

	body := string(data)
	switch {
	case strings.HasPrefix(body, "ok"):
		return body, nil
	case strings.HasPrefix(body, "error"):
		start, end := strings.IndexRune(body, '{'), strings.IndexRune(body, '}')
		if start >= 0 && end > start {
			return "", fmt.Errorf("relay returned an error: %s", body[start+1:end])
		}
		return "", fmt.Errorf("relay returned an error: %s", body)
	default:
		return "", fmt.Errorf("unexpected relay response: %q", truncate(body, 64))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
