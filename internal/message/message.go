// Package message defines the data model for everything exchanged over the
// ACARS relay: inbound protocol messages, locally generated display entries
// and the CPDLC response-requirement vocabulary.
package message

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidCPDLCFormat = errors.New("message does not follow CPDLC message format")

// Kind tags an inbound protocol message. The set is closed: everything the
// relay can deliver that is neither CPDLC nor telex is folded into KindOther.
type Kind string

const (
	KindCpdlc Kind = "cpdlc"
	KindTelex Kind = "telex"
	KindOther Kind = "other"
)

// KindOf maps a relay message type string onto the closed kind set.
func KindOf(relayType string) Kind {
	switch Kind(relayType) {
	case KindCpdlc:
		return KindCpdlc
	case KindTelex:
		return KindTelex
	default:
		return KindOther
	}
}

// ResponseRequirement is the RRK field of a CPDLC message, dictating which
// reply vocabulary (if any) the pilot must choose from.
type ResponseRequirement string

const (
	RespondWilcoUnable    ResponseRequirement = "WU"
	RespondAffirmNegative ResponseRequirement = "AN"
	RespondRoger          ResponseRequirement = "R"
	RespondYes            ResponseRequirement = "Y"
	RespondNo             ResponseRequirement = "N"
	RespondNotRequired    ResponseRequirement = "NE"
)

var responseRequirementDescription = map[ResponseRequirement]string{
	RespondWilcoUnable:    "Wilco or Unable",
	RespondAffirmNegative: "Affirm or Negative",
	RespondRoger:          "Roger",
	RespondYes:            "Yes",
	RespondNo:             "No",
	RespondNotRequired:    "Response Not Required",
}

func (rr ResponseRequirement) Description() string {
	return responseRequirementDescription[rr]
}

func isValidResponseRequirement(rr string) bool {
	return responseRequirementDescription[ResponseRequirement(rr)] != ""
}

// Responses returns the ordered reply options a pilot may choose from for
// this requirement. The first entry is the primary/default action. A nil
// result means no acknowledgement is expected.
func (rr ResponseRequirement) Responses() []string {
	switch rr {
	case RespondWilcoUnable:
		return []string{"WILCO", "UNABLE"}
	case RespondAffirmNegative:
		return []string{"AFFIRM", "NEGATIVE"}
	case RespondRoger:
		return []string{"ROGER"}
	case RespondYes:
		return []string{"YES"}
	case RespondNo:
		return []string{"NO"}
	default:
		return nil
	}
}

var ackVocabulary = map[string]struct{}{
	"WILCO":    {},
	"UNABLE":   {},
	"ROGER":    {},
	"AFFIRM":   {},
	"NEGATIVE": {},
	"YES":      {},
	"NO":       {},
}

// IsAckResponse reports whether text is exactly one of the fixed uppercase
// acknowledgement vocabulary words, with no other content.
func IsAckResponse(text string) bool {
	_, ok := ackVocabulary[text]
	return ok
}

// Protocol is an inbound unit received from the relay. Immutable once
// received. Min, Mrn and Rr are populated only for KindCpdlc.
type Protocol struct {
	Sender string
	Kind   Kind
	Raw    string
	Min    int
	Mrn    *int
	Rr     ResponseRequirement
}

// Valid reports whether the message is well-formed enough to store: a
// station/aircraft identifier of 4 to 7 characters and a known kind.
func (p Protocol) Valid() bool {
	if len(p.Sender) < 4 || len(p.Sender) > 7 {
		return false
	}
	switch p.Kind {
	case KindCpdlc, KindTelex, KindOther:
		return true
	default:
		return false
	}
}

// Synthetic is a locally generated display-only entry, e.g. a system notice
// or an echo of outbound text.
type Synthetic struct {
	Sender string
	Text   string
}

// CpdlcFields is the structured header of a CPDLC payload.
type CpdlcFields struct {
	Min  int
	Mrn  *int
	Rr   ResponseRequirement
	Text string
}

// ParseCpdlc decodes a raw `/data2/min/mrn/rrk/text` payload. The MRN field
// may be empty; the text may itself contain slashes.
func ParseCpdlc(data string) (*CpdlcFields, error) {
	stripped, valid := strings.CutPrefix(data, "/data2/")
	if !valid {
		return nil, ErrInvalidCPDLCFormat
	}

	parts := strings.SplitN(stripped, "/", 4)
	if len(parts) != 4 {
		return nil, ErrInvalidCPDLCFormat
	}

	min, mrn, rr, text := parts[0], parts[1], parts[2], parts[3]

	minCast, err := strconv.Atoi(min)
	if err != nil {
		return nil, fmt.Errorf("MIN: %s is not a valid identification number", min)
	}

	// The MRN is optional; only cast when present.
	var mrnOptional *int
	if mrn != "" {
		mrnCast, err := strconv.Atoi(mrn)
		if err != nil {
			return nil, fmt.Errorf("MRN: %s is not a valid message reference number", mrn)
		}
		mrnOptional = &mrnCast
	}

	if !isValidResponseRequirement(rr) {
		return nil, fmt.Errorf("key: %s is not a valid response requirement key", rr)
	}

	return &CpdlcFields{
		Min:  minCast,
		Mrn:  mrnOptional,
		Rr:   ResponseRequirement(rr),
		Text: text,
	}, nil
}

// BuildCpdlcPacket assembles the wire form `/data2/min/mrn/rrk/text` of an
// outbound CPDLC message. A nil mrn leaves the field empty.
func BuildCpdlcPacket(min int, mrn *int, rr ResponseRequirement, text string) string {
	packet := make([]string, 5)

	packet[0] = "/data2"
	packet[1] = strconv.Itoa(min)

	if mrn != nil {
		packet[2] = strconv.Itoa(*mrn)
	} else {
		packet[2] = ""
	}

	packet[3] = string(rr)
	packet[4] = text

	return strings.Join(packet, "/")
}
