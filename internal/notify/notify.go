// Package notify raises desktop notifications for inbound messages.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// Notifier wraps the platform notification backend. Failures are logged and
// swallowed; a missed notification must never disturb the message flow.
type Notifier struct {
	logger  zerolog.Logger
	enabled bool
}

func New(logger zerolog.Logger, enabled bool) *Notifier {
	return &Notifier{logger: logger, enabled: enabled}
}

// MessageReceived announces an inbound message from a station.
func (n *Notifier) MessageReceived(sender, text string) {
	if !n.enabled {
		return
	}
	if err := beeep.Notify("CPDLC message from "+sender, text, ""); err != nil {
		n.logger.Warn().Err(err).Msg("desktop notification failed")
	}
}
