// Package session tracks CPDLC logon state and the MIN counter, and emits
// every outbound protocol message: logon, logoff, altitude requests,
// acknowledgements and telex.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"simcpdlc/internal/message"
	"simcpdlc/internal/relay"
)

var (
	ErrNotConnected   = errors.New("session: relay not connected")
	ErrNotLoggedOn    = errors.New("session: not logged on to a station")
	ErrInvalidStation = errors.New("session: station name must be exactly 4 characters")
	ErrNoCallsign     = errors.New("session: callsign not set")
)

// Session is the CPDLC session state machine. The current station is empty
// while logged off and becomes non-empty only on receipt of LOGON ACCEPTED.
// The MIN counter resets to 1 on every fresh logon attempt and increments by
// exactly one per successful outbound CPDLC send; it is never decremented or
// reused within a session. Telex traffic sits outside the numbering space.
type Session struct {
	logger zerolog.Logger
	relay  relay.Relay

	mu       sync.Mutex
	callsign string
	station  string
	nextMin  int
}

func New(logger zerolog.Logger, r relay.Relay) *Session {
	return &Session{
		logger:  logger,
		relay:   r,
		nextMin: 1,
	}
}

func (s *Session) SetCallsign(callsign string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callsign = callsign
}

func (s *Session) Callsign() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callsign
}

func (s *Session) IsLoggedOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.station != ""
}

func (s *Session) CurrentStation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.station
}

// NextMin returns the MIN the next outbound CPDLC message will carry.
func (s *Session) NextMin() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextMin
}

// Logon sends a REQUEST LOGON to a station. The MIN counter always resets to
// 1 first, regardless of prior state. The current station is not set here;
// that happens only when the station answers with LOGON ACCEPTED.
func (s *Session) Logon(ctx context.Context, station string) error {
	if !s.relay.Connected() {
		s.logger.Warn().Msg("logon attempted without active connection")
		return ErrNotConnected
	}
	if len(station) != 4 {
		s.logger.Warn().Str("station", station).Msg("invalid station name for logon")
		return ErrInvalidStation
	}

	s.mu.Lock()
	s.nextMin = 1
	min := s.nextMin
	s.mu.Unlock()

	s.logger.Info().Str("station", station).Msg("attempting logon")

	if err := s.relay.SendCpdlc(ctx, station, min, message.RespondYes, "REQUEST LOGON", nil); err != nil {
		s.logger.Error().Str("station", station).Err(err).Msg("failed to send logon request")
		return err
	}

	s.mu.Lock()
	s.nextMin++
	s.mu.Unlock()

	s.logger.Info().Str("station", station).Msg("logon request sent")
	return nil
}

// HandleLogonAccepted records the station that accepted us. It fires both
// for explicit logon acceptance and for silent handovers where a new station
// issues acceptance without a local logon call.
func (s *Session) HandleLogonAccepted(station string) {
	if len(station) != 4 {
		s.logger.Warn().Str("station", station).Msg("invalid station name in LOGON ACCEPTED")
		return
	}

	s.mu.Lock()
	s.station = station
	s.mu.Unlock()

	s.logger.Info().Str("station", station).Msg("logon accepted")
}

// Logoff sends a LOGOFF to the current station and clears it. Returns the
// station that was logged off from, for confirmation messaging.
func (s *Session) Logoff(ctx context.Context) (string, error) {
	s.mu.Lock()
	station, min := s.station, s.nextMin
	s.mu.Unlock()

	if station == "" || !s.relay.Connected() {
		s.logger.Debug().Msg("logoff attempted without active station or connection")
		return "", ErrNotLoggedOn
	}

	s.logger.Info().Str("station", station).Msg("logging off")

	if err := s.relay.SendCpdlc(ctx, station, min, message.RespondNotRequired, "LOGOFF", nil); err != nil {
		s.logger.Error().Str("station", station).Err(err).Msg("failed to send logoff message")
		return "", err
	}

	s.mu.Lock()
	s.nextMin++
	s.station = ""
	s.mu.Unlock()

	s.logger.Info().Str("station", station).Msg("logged off")
	return station, nil
}

// HandleStationLogoff clears the current station when it announces LOGOFF.
// A logoff from any other station is logged and ignored as a likely stale or
// duplicate signal.
func (s *Session) HandleStationLogoff(station string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.station == station {
		s.logger.Info().Str("station", station).Msg("received LOGOFF from station")
		s.station = ""
		return
	}

	s.logger.Warn().
		Str("station", station).
		Str("current", s.station).
		Msg("received LOGOFF from station that is not the current station")
}

// SendAltitudeChangeRequest asks the current station for a climb or descent,
// optionally appending an uppercased reason.
func (s *Session) SendAltitudeChangeRequest(ctx context.Context, altitude string, isClimb bool, reason string) error {
	s.mu.Lock()
	station, min := s.station, s.nextMin
	s.mu.Unlock()

	if station == "" || !s.relay.Connected() {
		s.logger.Warn().Msg("altitude change attempted without active station or connection")
		return ErrNotLoggedOn
	}

	direction := "DESCENT"
	if isClimb {
		direction = "CLIMB"
	}

	text := fmt.Sprintf("REQUEST %s TO %s", direction, altitude)
	if reason != "" {
		text += " DUE TO " + strings.ToUpper(reason)
	}

	s.logger.Info().Str("station", station).Str("request", text).Msg("requesting altitude change")

	if err := s.relay.SendCpdlc(ctx, station, min, message.RespondWilcoUnable, text, nil); err != nil {
		s.logger.Error().Err(err).Msg("failed to send altitude change request")
		return err
	}

	s.mu.Lock()
	s.nextMin++
	s.mu.Unlock()

	return nil
}

// SendAcknowledgement replies to a received CPDLC message with one of its
// allowed responses. The reply consumes this session's MIN and references
// the original message through the MRN field.
func (s *Session) SendAcknowledgement(ctx context.Context, sender string, minValue int, response string) error {
	if !s.relay.Connected() {
		s.logger.Error().Msg("cannot send acknowledgement: not connected")
		return ErrNotConnected
	}

	s.mu.Lock()
	min := s.nextMin
	s.mu.Unlock()

	s.logger.Info().
		Str("sender", sender).
		Int("min", minValue).
		Str("response", response).
		Msg("acknowledging message")

	mrn := minValue
	if err := s.relay.SendCpdlc(ctx, sender, min, message.RespondNotRequired, response, &mrn); err != nil {
		s.logger.Error().Str("sender", sender).Err(err).Msg("failed to send acknowledgement")
		return err
	}

	s.mu.Lock()
	s.nextMin++
	s.mu.Unlock()

	return nil
}

// SendTelex passes a free-text message straight through to the relay.
func (s *Session) SendTelex(ctx context.Context, recipient, text string) error {
	if !s.relay.Connected() {
		s.logger.Warn().Msg("telex attempted without active connection")
		return ErrNotConnected
	}

	s.logger.Info().Str("recipient", recipient).Msg("sending telex")
	return s.relay.SendTelex(ctx, recipient, text)
}

// SendPdcRequest sends a pre-departure clearance request as telex to the
// origin airport.
func (s *Session) SendPdcRequest(ctx context.Context, originICAO, destinationICAO, aircraftCode, standDesignator, atisCode string) error {
	s.mu.Lock()
	callsign := s.callsign
	s.mu.Unlock()

	if !s.relay.Connected() || callsign == "" {
		s.logger.Warn().Msg("PDC request attempted without active connection or callsign")
		if callsign == "" {
			return ErrNoCallsign
		}
		return ErrNotConnected
	}

	s.logger.Info().
		Str("origin", originICAO).
		Str("destination", destinationICAO).
		Str("aircraft", aircraftCode).
		Msg("requesting PDC")

	text := strings.ToUpper(fmt.Sprintf(
		"Request predep clearance %s %s to %s at %s stand %s atis %s",
		callsign, aircraftCode, destinationICAO, originICAO, standDesignator, atisCode,
	))

	return s.relay.SendTelex(ctx, originICAO, text)
}
