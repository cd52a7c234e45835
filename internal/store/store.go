// Package store keeps every message seen during the current run, assigns
// stable ordinal identifiers and tracks which CPDLC messages have already
// been acknowledged by the pilot.
package store

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"simcpdlc/internal/codec"
	"simcpdlc/internal/message"
)

// AckKey identifies a CPDLC message for acknowledgement tracking: the
// sender's station name plus the MIN the sender assigned.
type AckKey struct {
	Sender string
	Min    int
}

// Entry is one stored record. Exactly one of Protocol and Synthetic is set.
type Entry struct {
	ID        int
	Protocol  *message.Protocol
	Synthetic *message.Synthetic
}

// Store is an insertion-ordered message log. Ids are assigned at insertion,
// are unique and are never reused.
type Store struct {
	logger zerolog.Logger

	mu      sync.Mutex
	nextID  int
	entries []Entry
	byID    map[int]int
	acked   map[AckKey]struct{}
}

func New(logger zerolog.Logger) *Store {
	return &Store{
		logger: logger,
		byID:   make(map[int]int),
		acked:  make(map[AckKey]struct{}),
	}
}

// AddProtocol stores an inbound protocol message and returns its id, or -1
// when the message is not a valid protocol message.
func (s *Store) AddProtocol(msg message.Protocol) int {
	if !msg.Valid() {
		s.logger.Warn().
			Str("sender", msg.Sender).
			Str("kind", string(msg.Kind)).
			Msg("rejected invalid protocol message")
		return -1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.byID[id] = len(s.entries)
	s.entries = append(s.entries, Entry{ID: id, Protocol: &msg})

	s.logger.Debug().
		Int("id", id).
		Str("sender", msg.Sender).
		Str("content", codec.ExtractContent(msg.Raw)).
		Msg("stored protocol message")

	return id
}

// AddSynthetic stores a locally generated display entry. An empty sender
// leaves attribution to DisplayText, which falls back to "SYSTEM".
func (s *Store) AddSynthetic(text, sender string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.byID[id] = len(s.entries)
	s.entries = append(s.entries, Entry{ID: id, Synthetic: &message.Synthetic{Sender: sender, Text: text}})

	s.logger.Debug().Int("id", id).Str("text", text).Msg("stored synthetic message")
	return id
}

// Get returns the entry for an id.
func (s *Store) Get(id int) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[idx], true
}

// Entries returns all stored entries in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// DisplayText returns the sender and a single-line rendition for list
// display. Unknown ids yield two empty strings.
func (s *Store) DisplayText(id int) (sender, text string) {
	entry, ok := s.Get(id)
	if !ok {
		return "", ""
	}

	switch {
	case entry.Protocol != nil:
		return entry.Protocol.Sender, codec.CompactForList(codec.ExtractContent(entry.Protocol.Raw))
	case entry.Synthetic != nil:
		return syntheticSender(entry.Synthetic)
	default:
		return "", ""
	}
}

// DetailText returns the multi-line rendition for the detail view.
func (s *Store) DetailText(id int) string {
	entry, ok := s.Get(id)
	if !ok {
		return ""
	}

	switch {
	case entry.Protocol != nil:
		return codec.ReflowForDetail(codec.ExtractContent(entry.Protocol.Raw))
	case entry.Synthetic != nil:
		_, text := syntheticSender(entry.Synthetic)
		return text
	default:
		return ""
	}
}

func syntheticSender(syn *message.Synthetic) (sender, text string) {
	if syn.Sender != "" {
		return syn.Sender, syn.Text
	}
	if sender, text, found := strings.Cut(syn.Text, ": "); found {
		return sender, text
	}
	return "SYSTEM", syn.Text
}

// MarkAcknowledged records that the pilot has responded to a CPDLC message.
// Re-marking the same message is a no-op; non-CPDLC messages are ignored.
func (s *Store) MarkAcknowledged(msg message.Protocol) {
	if msg.Kind != message.KindCpdlc {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := AckKey{Sender: msg.Sender, Min: msg.Min}
	s.acked[key] = struct{}{}
	s.logger.Debug().Str("sender", key.Sender).Int("min", key.Min).Msg("marked message acknowledged")
}

// NeedsAcknowledgement reports whether a message still awaits a pilot
// response and, if so, the ordered response options. The first option is the
// primary/default action.
func (s *Store) NeedsAcknowledgement(msg message.Protocol) (bool, []string) {
	if msg.Kind != message.KindCpdlc {
		return false, nil
	}

	s.mu.Lock()
	_, acked := s.acked[AckKey{Sender: msg.Sender, Min: msg.Min}]
	s.mu.Unlock()

	if acked {
		return false, nil
	}

	responses := msg.Rr.Responses()
	if len(responses) == 0 {
		return false, nil
	}
	return true, responses
}
