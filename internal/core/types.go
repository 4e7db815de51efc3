package core

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	// MaxHistory is the number of events kept per pair, newest first.
	MaxHistory = 100

	// DefaultTag is assigned to pairs that have never been tagged.
	DefaultTag = "forex"
)

// Direction represents the trend bias reported for a pair/timeframe
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// ParseDirection validates a raw direction value.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionUp, DirectionDown, DirectionNeutral:
		return d, nil
	default:
		return "", WrapError(ErrInvalidField, fmt.Errorf("unknown direction %q", s))
	}
}

// ConfirmationStatus is a readiness signal. Anything other than "ready" is not ready.
type ConfirmationStatus string

const ConfirmationReady ConfirmationStatus = "ready"

// IsReady reports whether the status is "ready" (case-insensitive).
func (c ConfirmationStatus) IsReady() bool {
	return strings.EqualFold(string(c), string(ConfirmationReady))
}

// EventKind is the discriminant of an Event
type EventKind string

const (
	KindDirection    EventKind = "direction"
	KindConfirmation EventKind = "confirmation"
)

// EventHeader carries the fields shared by every event kind.
type EventHeader struct {
	Pair      string
	Timeframe string
	Timestamp string
}

// Event is an incoming signal. It is either a DirectionEvent or a ConfirmationEvent.
type Event interface {
	Header() EventHeader
	Kind() EventKind
	isEvent()
}

// DirectionEvent reports a new trend bias.
type DirectionEvent struct {
	EventHeader
	Direction Direction
}

func (e DirectionEvent) Header() EventHeader { return e.EventHeader }
func (e DirectionEvent) Kind() EventKind     { return KindDirection }
func (DirectionEvent) isEvent()              {}

// ConfirmationEvent reports a new confirmation status.
type ConfirmationEvent struct {
	EventHeader
	Status ConfirmationStatus
}

func (e ConfirmationEvent) Header() EventHeader { return e.EventHeader }
func (e ConfirmationEvent) Kind() EventKind     { return KindConfirmation }
func (ConfirmationEvent) isEvent()              {}

// HistoryEntry is one past event as stored on a PairState.
type HistoryEntry struct {
	Kind               EventKind          `json:"kind"`
	Timeframe          string             `json:"timeframe"`
	Direction          Direction          `json:"direction,omitempty"`
	ConfirmationStatus ConfirmationStatus `json:"confirmationStatus,omitempty"`
	Timestamp          string             `json:"timestamp"`
	ReceivedAt         time.Time          `json:"receivedAt"`
}

// PairState is the persisted state of one instrument.
type PairState struct {
	ID                    string                        `json:"id"`
	DirectionTimeframe    map[string]Direction          `json:"directionTimeframe"`
	ConfirmationTimeframe map[string]ConfirmationStatus `json:"confirmationTimeframe"`
	History               []HistoryEntry                `json:"history"`
	Tags                  []string                      `json:"tags"`
	LastUpdated           time.Time                     `json:"lastUpdated"`

	// Version is managed by the document store.
	Version int64 `json:"-"`
}

// NewPairState returns an empty state carrying the default tag.
func NewPairState(id string) *PairState {
	return &PairState{
		ID:                    id,
		DirectionTimeframe:    make(map[string]Direction),
		ConfirmationTimeframe: make(map[string]ConfirmationStatus),
		History:               []HistoryEntry{},
		Tags:                  []string{DefaultTag},
	}
}

// Apply merges an event into the state and reports whether the stored value
// for the event's timeframe changed. History and LastUpdated are updated
// regardless.
func (p *PairState) Apply(ev Event, receivedAt time.Time) bool {
	if p.DirectionTimeframe == nil {
		p.DirectionTimeframe = make(map[string]Direction)
	}
	if p.ConfirmationTimeframe == nil {
		p.ConfirmationTimeframe = make(map[string]ConfirmationStatus)
	}

	h := ev.Header()
	entry := HistoryEntry{
		Kind:       ev.Kind(),
		Timeframe:  h.Timeframe,
		Timestamp:  h.Timestamp,
		ReceivedAt: receivedAt,
	}

	var changed bool
	switch e := ev.(type) {
	case DirectionEvent:
		prev, ok := p.DirectionTimeframe[h.Timeframe]
		changed = !ok || prev != e.Direction
		p.DirectionTimeframe[h.Timeframe] = e.Direction
		entry.Direction = e.Direction
	case ConfirmationEvent:
		prev, ok := p.ConfirmationTimeframe[h.Timeframe]
		changed = !ok || prev != e.Status
		p.ConfirmationTimeframe[h.Timeframe] = e.Status
		entry.ConfirmationStatus = e.Status
	default:
		panic(fmt.Sprintf("core: unhandled event type %T", ev))
	}

	p.History = append([]HistoryEntry{entry}, p.History...)
	if len(p.History) > MaxHistory {
		p.History = p.History[:MaxHistory]
	}
	p.LastUpdated = receivedAt

	return changed
}

// HasTag reports whether the pair carries tag.
func (p *PairState) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

// AddTag appends a tag, rejecting duplicates.
func (p *PairState) AddTag(tag string) error {
	if p.HasTag(tag) {
		return WrapError(ErrTagExists, fmt.Errorf("%s already tagged %q", p.ID, tag))
	}
	p.Tags = append(p.Tags, tag)
	return nil
}

// RemoveTag drops a tag and reports whether it was present.
func (p *PairState) RemoveTag(tag string) bool {
	idx := slices.Index(p.Tags, tag)
	if idx < 0 {
		return false
	}
	p.Tags = slices.Delete(p.Tags, idx, idx+1)
	return true
}

// Clone returns a deep copy.
func (p *PairState) Clone() *PairState {
	c := *p
	c.DirectionTimeframe = make(map[string]Direction, len(p.DirectionTimeframe))
	for k, v := range p.DirectionTimeframe {
		c.DirectionTimeframe[k] = v
	}
	c.ConfirmationTimeframe = make(map[string]ConfirmationStatus, len(p.ConfirmationTimeframe))
	for k, v := range p.ConfirmationTimeframe {
		c.ConfirmationTimeframe[k] = v
	}
	c.History = slices.Clone(p.History)
	c.Tags = slices.Clone(p.Tags)
	return &c
}
