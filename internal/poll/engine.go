// Package poll owns the recurring relay poll: it ingests inbound messages,
// adapts its own interval to traffic and triggers reconnection after
// consecutive relay failures.
package poll

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"simcpdlc/internal/codec"
	"simcpdlc/internal/message"
	"simcpdlc/internal/relay"
	"simcpdlc/internal/session"
	"simcpdlc/internal/store"
)

const (
	DefaultInterval          = 60 * time.Second
	DefaultActiveInterval    = 20 * time.Second
	DefaultInactivityTimeout = 5 * time.Minute
)

// Embedded protocol signals recognized in decoded CPDLC content.
const (
	signalLogonAccepted = "LOGON ACCEPTED"
	signalLogoff        = "LOGOFF"
)

// Config tunes the adaptive polling behavior. Zero values fall back to the
// package defaults.
type Config struct {
	// Interval between polls when traffic is quiet.
	DefaultInterval time.Duration
	// Interval while an active exchange is in progress.
	ActiveInterval time.Duration
	// Quiet time after which the active interval reverts to the default.
	InactivityTimeout time.Duration
}

func (c *Config) fillDefaults() {
	if c.DefaultInterval <= 0 {
		c.DefaultInterval = DefaultInterval
	}
	if c.ActiveInterval <= 0 {
		c.ActiveInterval = DefaultActiveInterval
	}
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = DefaultInactivityTimeout
	}
}

// MessageFunc is invoked for every ingested protocol message with its
// assigned store id.
type MessageFunc func(id int, msg message.Protocol)

// Engine drives the poll loop. A single goroutine runs all ticks, so a tick
// never overlaps the previous one; interval changes take effect on the next
// scheduling decision.
type Engine struct {
	logger    zerolog.Logger
	relay     relay.Reconnector
	store     *store.Store
	session   *session.Session
	onMessage MessageFunc
	cfg       Config

	mu           sync.Mutex
	interval     time.Duration
	lastActivity time.Time

	now func() time.Time
}

func NewEngine(logger zerolog.Logger, r relay.Reconnector, st *store.Store, sess *session.Session, cfg Config, onMessage MessageFunc) *Engine {
	cfg.fillDefaults()
	return &Engine{
		logger:    logger,
		relay:     r,
		store:     st,
		session:   sess,
		onMessage: onMessage,
		cfg:       cfg,
		interval:  cfg.DefaultInterval,
		now:       time.Now,
	}
}

// Interval returns the currently configured polling interval.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// Run polls until the context is cancelled or the relay is disconnected.
// It returns nil on a clean disconnect so callers can restart the engine
// after the next successful connect.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	e.interval = e.cfg.DefaultInterval
	current := e.interval
	e.mu.Unlock()

	e.logger.Info().Dur("interval", current).Msg("polling started")

	ticker := time.NewTicker(current)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if stop := e.tick(ctx); stop {
				e.logger.Info().Msg("polling stopped")
				return nil
			}
			if next := e.Interval(); next != current {
				current = next
				ticker.Reset(current)
				e.logger.Debug().Dur("interval", current).Msg("polling interval changed")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// tick runs one poll cycle. It reports true when polling should stop because
// the relay connection is gone.
func (e *Engine) tick(ctx context.Context) (stop bool) {
	if !e.relay.Connected() {
		e.logger.Warn().Msg("connection lost, stopping poll")
		return true
	}

	msgs, err := e.relay.Poll(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("poll failed")
	} else if len(msgs) > 0 {
		e.logger.Info().Int("count", len(msgs)).Msg("received new messages")
		for _, msg := range msgs {
			e.ingest(msg)
		}
	}

	e.checkInactivity()
	e.maybeReconnect(ctx)

	return false
}

func (e *Engine) ingest(msg message.Protocol) {
	id := e.store.AddProtocol(msg)
	if id < 0 {
		return
	}

	if e.onMessage != nil {
		e.onMessage(id, msg)
	}

	content := codec.ExtractContent(msg.Raw)
	if msg.Kind == message.KindCpdlc {
		switch {
		case strings.Contains(content, signalLogonAccepted):
			e.session.HandleLogonAccepted(msg.Sender)
		case strings.Contains(content, signalLogoff):
			e.session.HandleStationLogoff(msg.Sender)
		}
	}

	if e.shouldIncreaseRate(msg, content) {
		e.setActive()
	}
}

// shouldIncreaseRate decides whether a received message warrants faster
// polling. Telex and other non-CPDLC traffic never does, and neither does a
// CPDLC message that is nothing but a bare acknowledgement word.
func (e *Engine) shouldIncreaseRate(msg message.Protocol, content string) bool {
	if msg.Kind != message.KindCpdlc {
		return false
	}
	return !message.IsAckResponse(content)
}

func (e *Engine) setActive() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.interval != e.cfg.ActiveInterval {
		e.logger.Debug().Dur("interval", e.cfg.ActiveInterval).Msg("switching to active polling")
		e.interval = e.cfg.ActiveInterval
	}
	e.lastActivity = e.now()
}

// checkInactivity reverts to the default interval once the active exchange
// has gone quiet for longer than the inactivity timeout.
func (e *Engine) checkInactivity() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.interval == e.cfg.DefaultInterval {
		return
	}

	if e.now().Sub(e.lastActivity) > e.cfg.InactivityTimeout {
		e.logger.Info().
			Dur("interval", e.cfg.DefaultInterval).
			Msg("inactivity timeout reached, returning to default polling")
		e.interval = e.cfg.DefaultInterval
	}
}

// maybeReconnect makes a single reconnection attempt once the relay reports
// that its consecutive-failure threshold has been reached. A failed attempt
// leaves the relay disconnected, so the next tick stops the loop.
func (e *Engine) maybeReconnect(ctx context.Context) {
	if !e.relay.ShouldReconnect() {
		return
	}

	e.logger.Warn().Msg("maximum connection failures reached, attempting reconnection")

	if err := e.relay.Reconnect(ctx); err != nil {
		e.logger.Error().Err(err).Msg("reconnection failed")
		return
	}

	e.logger.Info().Msg("reconnection successful")

	e.mu.Lock()
	e.interval = e.cfg.DefaultInterval
	e.mu.Unlock()
}
