// Package relay is the only network-facing layer: an HTTP connector for the
// Hoppie-style ACARS text relay used by SayIntentions and Hoppie itself.
package relay

import (
	"context"
	"errors"

	"simcpdlc/internal/message"
)

var (
	ErrNotConnected = errors.New("relay: not connected")
	ErrMissingCreds = errors.New("relay: callsign or logon code missing")
)

// Relay is the capability the session and polling layers depend on.
type Relay interface {
	// Poll fetches all messages queued for the connected callsign.
	Poll(ctx context.Context) ([]message.Protocol, error)
	// SendCpdlc sends a structured CPDLC packet to a recipient station.
	SendCpdlc(ctx context.Context, recipient string, min int, rr message.ResponseRequirement, text string, mrn *int) error
	// SendTelex sends a free-text telex message.
	SendTelex(ctx context.Context, recipient, text string) error
	Connected() bool
}

// Reconnector extends Relay with the failure bookkeeping the polling engine
// needs to trigger automatic reconnection.
type Reconnector interface {
	Relay
	// ShouldReconnect reports whether the consecutive-failure threshold has
	// been reached and credentials are on hand for a retry.
	ShouldReconnect() bool
	Reconnect(ctx context.Context) error
}

// RequestType is the relay-level message type carried in the `type` request
// parameter.
type RequestType string

const (
	TypeCpdlc    RequestType = "cpdlc"
	TypeTelex    RequestType = "telex"
	TypePoll     RequestType = "poll"
	TypePing     RequestType = "ping"
	TypeInfoReq  RequestType = "inforeq"
	TypeProgress RequestType = "progress"
)
