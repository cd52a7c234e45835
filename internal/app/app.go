// Package app assembles the application runtime: configuration, logging,
// relay connector, message store, session, bus consumers and the polling
// engine lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"simcpdlc/internal/bus"
	"simcpdlc/internal/config"
	"simcpdlc/internal/history"
	"simcpdlc/internal/message"
	"simcpdlc/internal/notify"
	"simcpdlc/internal/poll"
	"simcpdlc/internal/relay"
	"simcpdlc/internal/session"
	"simcpdlc/internal/simbrief"
	"simcpdlc/internal/store"
	"simcpdlc/internal/update"
)

const (
	configFileName  = "config.toml"
	historyFileName = "history.db"
	logFileName     = "simcpdlc.log"

	transcriptReplayLimit = 20
)

type Runtime struct {
	Ctx    context.Context
	cancel context.CancelFunc

	Dir    string
	Config config.Config
	Logger zerolog.Logger

	Bus       *bus.PubSubBus
	Store     *store.Store
	Connector *relay.Connector
	Session   *session.Session
	History   *history.DB
	Notifier  *notify.Notifier
	SimBrief  *simbrief.Client
	Updates   *update.Checker

	logFile *os.File
	group   *errgroup.Group

	engineMu     sync.Mutex
	engineCancel context.CancelFunc

	ofpMu sync.Mutex
	ofp   *simbrief.OFP
}

func Initialize(parent context.Context, version string) (*Runtime, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(filepath.Join(dir, configFileName))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		Dir:    dir,
		Config: cfg,
	}

	if err := rt.setupLogging(); err != nil {
		cancel()
		return nil, err
	}
	rt.Logger.Info().
		Str("version", version).
		Str("network", string(cfg.Network.Network)).
		Msg("starting simcpdlc runtime")

	rt.Bus = bus.New(rt.Logger.With().Str("component", "bus").Logger())
	rt.Store = store.New(rt.Logger.With().Str("component", "store").Logger())

	connectorOpts := []relay.Option{relay.WithMaxFailures(cfg.Polling.MaxFailures)}
	if cfg.Network.Network == config.NetworkHoppie {
		connectorOpts = append(connectorOpts, relay.WithRequestURL(relay.HoppieRequestURL))
	}
	rt.Connector = relay.NewConnector(rt.Logger.With().Str("component", "relay").Logger(), connectorOpts...)
	rt.Session = session.New(rt.Logger.With().Str("component", "session").Logger(), rt.Connector)

	db, err := history.Open(ctx, filepath.Join(dir, historyFileName))
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("open message history: %w", err)
	}
	rt.History = db
	rt.replayTranscript(ctx)

	rt.Notifier = notify.New(rt.Logger.With().Str("component", "notify").Logger(), true)
	rt.SimBrief = simbrief.NewClient(rt.Logger.With().Str("component", "simbrief").Logger())
	rt.Updates = update.NewChecker(rt.Logger.With().Str("component", "update").Logger())

	rt.group, _ = errgroup.WithContext(ctx)
	rt.startConsumers()
	rt.group.Go(func() error {
		rt.checkForUpdate(version)
		return nil
	})
	rt.group.Go(func() error {
		rt.fetchFlightPlan()
		return nil
	})

	return rt, nil
}

// setupLogging routes zerolog to the log file when enabled. The terminal is
// owned by the TUI, so console output is discarded.
func (rt *Runtime) setupLogging() error {
	level, err := zerolog.ParseLevel(rt.Config.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = io.Discard
	if rt.Config.Logging.LogToFile {
		f, err := os.OpenFile(filepath.Join(rt.Dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		rt.logFile = f
		out = zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: "15:04:05"}
	}

	rt.Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return nil
}

// startConsumers attaches the history writer and desktop notifier to the bus.
func (rt *Runtime) startConsumers() {
	inbound := rt.Bus.Subscribe(bus.TopicInbound)
	outbound := rt.Bus.Subscribe(bus.TopicOutbound)

	rt.group.Go(func() error {
		for {
			select {
			case <-rt.Ctx.Done():
				return nil
			case raw, ok := <-inbound:
				if !ok {
					return nil
				}
				ev, ok := raw.(bus.InboundMessage)
				if !ok {
					continue
				}
				sender, text := rt.Store.DisplayText(ev.ID)
				rt.Notifier.MessageReceived(sender, text)
				rt.appendHistory(history.Record{
					Sender:    sender,
					Direction: history.DirectionIn,
					Body:      text,
				})
			case raw, ok := <-outbound:
				if !ok {
					return nil
				}
				ev, ok := raw.(bus.OutboundMessage)
				if !ok {
					continue
				}
				rt.appendHistory(history.Record{
					Sender:    ev.Recipient,
					Direction: history.DirectionOut,
					Body:      ev.Text,
				})
			}
		}
	})
}

// replayTranscript seeds the store with the tail of the previous run's
// traffic so prior clearances stay reviewable.
func (rt *Runtime) replayTranscript(ctx context.Context) {
	records, err := rt.History.Recent(ctx, transcriptReplayLimit)
	if err != nil {
		rt.Logger.Warn().Err(err).Msg("failed to load message history")
		return
	}
	for _, rec := range records {
		sender := rec.Sender
		if rec.Direction == history.DirectionOut {
			sender = "to " + rec.Sender
		}
		rt.Store.AddSynthetic(rec.Body, sender)
	}
}

func (rt *Runtime) appendHistory(rec history.Record) {
	if err := rt.History.Append(rt.Ctx, rec); err != nil {
		rt.Logger.Warn().Err(err).Msg("failed to append history record")
	}
}

func (rt *Runtime) checkForUpdate(version string) {
	release, err := rt.Updates.Check(rt.Ctx, version)
	if err != nil {
		rt.Logger.Debug().Err(err).Msg("update check failed")
		return
	}
	if release.Newer {
		rt.Bus.Publish(bus.TopicNotice, bus.Notice{
			Text: fmt.Sprintf("Update available: v%s at %s", release.Version, release.URL),
		})
	}
}

func (rt *Runtime) fetchFlightPlan() {
	userID := rt.Config.SimBrief.UserID
	if userID == "" {
		return
	}

	ofp, err := rt.SimBrief.FetchOFP(rt.Ctx, userID)
	if err != nil {
		rt.Logger.Warn().Err(err).Msg("simbrief fetch failed")
		return
	}

	rt.ofpMu.Lock()
	rt.ofp = ofp
	rt.ofpMu.Unlock()

	rt.Bus.Publish(bus.TopicNotice, bus.Notice{
		Text: fmt.Sprintf("SimBrief plan loaded: %s %s to %s",
			ofp.ATC.Callsign, ofp.Origin.ICAO, ofp.Destination.ICAO),
	})
}

// FlightPlan returns the fetched SimBrief OFP, if any.
func (rt *Runtime) FlightPlan() *simbrief.OFP {
	rt.ofpMu.Lock()
	defer rt.ofpMu.Unlock()
	return rt.ofp
}

// Connect establishes the relay session for the callsign and starts the
// polling engine. A previous engine, if any, is stopped first.
func (rt *Runtime) Connect(ctx context.Context, callsign string) error {
	logon := rt.Config.LogonCode()
	if logon == "" {
		return fmt.Errorf("no logon code configured for network %q", rt.Config.Network.Network)
	}

	if err := rt.Connector.Connect(ctx, callsign, logon); err != nil {
		return err
	}
	rt.Session.SetCallsign(callsign)

	rt.startEngine()
	rt.group.Go(func() error {
		rt.fetchNotams()
		return nil
	})
	rt.Bus.Publish(bus.TopicNotice, bus.Notice{Text: "Connected as " + callsign})
	return nil
}

// fetchNotams surfaces the relay's current NOTAMs as system messages.
func (rt *Runtime) fetchNotams() {
	notams, err := rt.Connector.StatusNotams(rt.Ctx)
	if err != nil {
		rt.Logger.Debug().Err(err).Msg("relay status fetch failed")
		return
	}
	for _, notam := range notams {
		rt.Store.AddSynthetic("NOTAM: "+notam, "RELAY")
	}
	if len(notams) > 0 {
		rt.Bus.Publish(bus.TopicNotice, bus.Notice{
			Text: fmt.Sprintf("%d relay NOTAMs received", len(notams)),
		})
	}
}

func (rt *Runtime) startEngine() {
	rt.engineMu.Lock()
	defer rt.engineMu.Unlock()

	if rt.engineCancel != nil {
		rt.engineCancel()
	}

	engineCtx, engineCancel := context.WithCancel(rt.Ctx)
	rt.engineCancel = engineCancel

	engine := poll.NewEngine(
		rt.Logger.With().Str("component", "poll").Logger(),
		rt.Connector,
		rt.Store,
		rt.Session,
		poll.Config{
			DefaultInterval:   secondsToDuration(rt.Config.Polling.DefaultIntervalSec),
			ActiveInterval:    secondsToDuration(rt.Config.Polling.ActiveIntervalSec),
			InactivityTimeout: secondsToDuration(rt.Config.Polling.InactivityTimeoutSec),
		},
		func(id int, msg message.Protocol) {
			rt.Bus.Publish(bus.TopicInbound, bus.InboundMessage{ID: id, Message: msg})
		},
	)

	rt.group.Go(func() error {
		defer engineCancel()
		if err := engine.Run(engineCtx); err != nil && engineCtx.Err() == nil {
			rt.Logger.Error().Err(err).Msg("polling engine stopped")
		}
		return nil
	})
}

func secondsToDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}

// Disconnect stops the polling engine and drops the relay connection.
func (rt *Runtime) Disconnect() {
	rt.engineMu.Lock()
	if rt.engineCancel != nil {
		rt.engineCancel()
		rt.engineCancel = nil
	}
	rt.engineMu.Unlock()

	rt.Connector.Disconnect()
	rt.Bus.Publish(bus.TopicNotice, bus.Notice{Text: "Disconnected from network"})
}

func (rt *Runtime) Close() error {
	if rt.cancel != nil {
		rt.cancel()
	}
	if rt.Bus != nil {
		rt.Bus.Close()
	}
	if rt.group != nil {
		_ = rt.group.Wait()
	}
	if rt.History != nil {
		_ = rt.History.Close()
	}
	if rt.logFile != nil {
		_ = rt.logFile.Close()
	}
	return nil
}
