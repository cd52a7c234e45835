package store

import (
	"testing"

	"github.com/rs/zerolog"

	"simcpdlc/internal/message"
)

func newStore() *Store {
	return New(zerolog.Nop())
}

func cpdlcMsg(sender string, min int, rr message.ResponseRequirement, payload string) message.Protocol {
	return message.Protocol{
		Sender: sender,
		Kind:   message.KindCpdlc,
		Raw:    payload,
		Min:    min,
		Rr:     rr,
	}
}

func TestAddProtocolAssignsSequentialIDs(t *testing.T) {
	s := newStore()
	first := s.AddProtocol(cpdlcMsg("EDDF", 1, message.RespondRoger, "/data2/1//R/HELLO"))
	second := s.AddProtocol(cpdlcMsg("EDDF", 2, message.RespondRoger, "/data2/2//R/WORLD"))

	if first != 0 || second != 1 {
		t.Fatalf("expected ids 0 and 1, got %d and %d", first, second)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}
}

func TestAddProtocolRejectsInvalidMessage(t *testing.T) {
	s := newStore()
	if id := s.AddProtocol(message.Protocol{Sender: "X", Kind: message.KindCpdlc}); id != -1 {
		t.Fatalf("expected -1 for invalid message, got %d", id)
	}
	if s.Len() != 0 {
		t.Fatalf("invalid message must not be stored")
	}
}

func TestDisplayTextProtocol(t *testing.T) {
	s := newStore()
	id := s.AddProtocol(cpdlcMsg("EDDF", 5, message.RespondWilcoUnable, "/data2/5//WU/CLIMB@TO@FL350"))

	sender, text := s.DisplayText(id)
	if sender != "EDDF" {
		t.Fatalf("expected sender EDDF, got %q", sender)
	}
	if text != "CLIMB TO FL350" {
		t.Fatalf("expected compact text, got %q", text)
	}
}

func TestDetailTextProtocol(t *testing.T) {
	s := newStore()
	id := s.AddProtocol(cpdlcMsg("EDDF", 5, message.RespondWilcoUnable, "/data2/5//WU/CLIMB@TO@FL350"))

	if got := s.DetailText(id); got != "CLIMB\nTO\nFL350" {
		t.Fatalf("expected reflowed detail text, got %q", got)
	}
}

func TestSyntheticWithExplicitSender(t *testing.T) {
	s := newStore()
	id := s.AddSynthetic("Logon request sent to EDDF", "DLH123")

	sender, text := s.DisplayText(id)
	if sender != "DLH123" || text != "Logon request sent to EDDF" {
		t.Fatalf("unexpected display %q / %q", sender, text)
	}
	if s.DetailText(id) != "Logon request sent to EDDF" {
		t.Fatalf("unexpected detail text")
	}
}

func TestSyntheticEmbeddedSenderSplit(t *testing.T) {
	s := newStore()
	id := s.AddSynthetic("DLH123: REQUEST CLIMB TO FL350", "")

	sender, text := s.DisplayText(id)
	if sender != "DLH123" || text != "REQUEST CLIMB TO FL350" {
		t.Fatalf("unexpected display %q / %q", sender, text)
	}
}

func TestSyntheticDefaultsToSystemSender(t *testing.T) {
	s := newStore()
	id := s.AddSynthetic("Connected to relay", "")

	sender, _ := s.DisplayText(id)
	if sender != "SYSTEM" {
		t.Fatalf("expected SYSTEM sender, got %q", sender)
	}
}

func TestUnknownIDYieldsEmptyText(t *testing.T) {
	s := newStore()
	if sender, text := s.DisplayText(42); sender != "" || text != "" {
		t.Fatalf("expected empty result for unknown id")
	}
	if s.DetailText(42) != "" {
		t.Fatalf("expected empty detail for unknown id")
	}
}

func TestNeedsAcknowledgementMapping(t *testing.T) {
	s := newStore()

	cases := []struct {
		rr   message.ResponseRequirement
		want []string
	}{
		{message.RespondWilcoUnable, []string{"WILCO", "UNABLE"}},
		{message.RespondAffirmNegative, []string{"AFFIRM", "NEGATIVE"}},
		{message.RespondRoger, []string{"ROGER"}},
		{message.RespondYes, []string{"YES"}},
		{message.RespondNo, []string{"NO"}},
	}

	for i, c := range cases {
		msg := cpdlcMsg("EDDF", 10+i, c.rr, "/data2/1//WU/X")
		needs, responses := s.NeedsAcknowledgement(msg)
		if !needs {
			t.Fatalf("%q: expected acknowledgement needed", c.rr)
		}
		if len(responses) != len(c.want) {
			t.Fatalf("%q: expected %v, got %v", c.rr, c.want, responses)
		}
		for j := range responses {
			if responses[j] != c.want[j] {
				t.Fatalf("%q: response order wrong, expected %v got %v", c.rr, c.want, responses)
			}
		}
	}
}

func TestNeedsAcknowledgementFalseCases(t *testing.T) {
	s := newStore()

	telex := message.Protocol{Sender: "EDDF", Kind: message.KindTelex, Raw: "HELLO"}
	if needs, responses := s.NeedsAcknowledgement(telex); needs || responses != nil {
		t.Fatalf("telex must not need acknowledgement")
	}

	notRequired := cpdlcMsg("EDDF", 1, message.RespondNotRequired, "/data2/1//NE/LOGON ACCEPTED")
	if needs, _ := s.NeedsAcknowledgement(notRequired); needs {
		t.Fatalf("NE requirement must not need acknowledgement")
	}
}

func TestMarkAcknowledgedSuppressesPrompt(t *testing.T) {
	s := newStore()
	msg := cpdlcMsg("EDDF", 7, message.RespondWilcoUnable, "/data2/7//WU/CLIMB TO FL350")

	if needs, _ := s.NeedsAcknowledgement(msg); !needs {
		t.Fatalf("expected acknowledgement needed before marking")
	}

	s.MarkAcknowledged(msg)
	if needs, responses := s.NeedsAcknowledgement(msg); needs || responses != nil {
		t.Fatalf("expected no acknowledgement after marking")
	}

	// Marking twice must be indistinguishable from marking once.
	s.MarkAcknowledged(msg)
	if needs, _ := s.NeedsAcknowledgement(msg); needs {
		t.Fatalf("idempotent mark violated")
	}
}

func TestMarkAcknowledgedIgnoresNonCpdlc(t *testing.T) {
	s := newStore()
	telex := message.Protocol{Sender: "EDDF", Kind: message.KindTelex, Raw: "HELLO", Min: 7}
	s.MarkAcknowledged(telex)

	// The same key as a CPDLC message must still need acknowledgement.
	msg := cpdlcMsg("EDDF", 7, message.RespondWilcoUnable, "/data2/7//WU/CLIMB TO FL350")
	if needs, _ := s.NeedsAcknowledgement(msg); !needs {
		t.Fatalf("telex mark must not affect cpdlc ack state")
	}
}

func TestEntriesReturnsInsertionOrder(t *testing.T) {
	s := newStore()
	s.AddSynthetic("first", "")
	s.AddProtocol(cpdlcMsg("EDDF", 1, message.RespondRoger, "/data2/1//R/SECOND"))
	s.AddSynthetic("third", "")

	entries := s.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.ID != i {
			t.Fatalf("entry %d has id %d", i, e.ID)
		}
	}
}
