package relay

import (
	"regexp"

	"simcpdlc/internal/message"
)

// A poll body looks like `ok {EDDF cpdlc {/data2/5//WU/CLIMB TO FL350}} ...`
// with one braced group per queued message.
var pollMessageExpr = regexp.MustCompile(`\{([A-Z0-9]+)\s+([a-z-]+)\s+(\{[^}]*\})\}`)

// parseMessages splits a poll response body into protocol messages. CPDLC
// payloads additionally get their MIN/MRN/RRK header decoded; a payload that
// fails structured decode is kept with kind Other so it still reaches the
// message log.
func (c *Connector) parseMessages(data string) []message.Protocol {
	var messages []message.Protocol

	for _, m := range pollMessageExpr.FindAllStringSubmatch(data, -1) {
		sender, relayType, payload := m[1], m[2], m[3][1:len(m[3])-1]

		msg := message.Protocol{
			Sender: sender,
			Kind:   message.KindOf(relayType),
			Raw:    payload,
		}

		if msg.Kind == message.KindCpdlc {
			fields, err := message.ParseCpdlc(payload)
			if err != nil {
				c.logger.Debug().
					Str("sender", sender).
					Str("payload", payload).
					Err(err).
					Msg("cpdlc payload failed structured decode")
				msg.Kind = message.KindOther
			} else {
				msg.Min = fields.Min
				msg.Mrn = fields.Mrn
				msg.Rr = fields.Rr
			}
		}

		messages = append(messages, msg)
	}

	return messages
}
