package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// EventKind tags which variant an Event carries.
type EventKind string

const (
	KindPeak     EventKind = "PEAK"
	KindSemantic EventKind = "SEMANTIC"
)

// EventType is the fine-grained event classification.
type EventType string

const (
	TypePeak          EventType = "PEAK"
	TypeLockdownStart EventType = "LOCKDOWN_START"
	TypeLockdownEnd   EventType = "LOCKDOWN_END"
	TypeVaccine       EventType = "VACCINE"
)

// Event is either a detected peak or a calendar (semantic) event. Both share
// Date, Rank and Type; the remaining accessors are meaningful for one kind only.
type Event struct {
	kind        EventKind
	typ         EventType
	date        time.Time
	rank        int
	height      float64
	index       int
	description string
}

// NewPeakEvent creates an unranked peak at series index idx.
func NewPeakEvent(p SeriesPoint, idx int) Event {
	return Event{
		kind:   KindPeak,
		typ:    TypePeak,
		date:   Day(p.Date),
		height: p.Value,
		index:  idx,
	}
}

// NewSemanticEvent creates a calendar event ranked from the priority table.
func NewSemanticEvent(date time.Time, typ EventType, description string) Event {
	return Event{
		kind:        KindSemantic,
		typ:         typ,
		date:        Day(date),
		rank:        SemanticRank(typ),
		description: description,
		index:       -1,
	}
}

func (e Event) Kind() EventKind     { return e.kind }
func (e Event) Type() EventType     { return e.typ }
func (e Event) Date() time.Time     { return e.date }
func (e Event) Rank() int           { return e.rank }
func (e Event) Height() float64     { return e.height }
func (e Event) Description() string { return e.description }

// Index is the series index of a peak, or -1 for semantic events.
func (e Event) Index() int { return e.index }

// WithRank returns a copy of e carrying rank r.
func (e Event) WithRank(r int) Event {
	e.rank = r
	return e
}

type eventJSON struct {
	Kind        EventKind `json:"kind"`
	Type        EventType `json:"type"`
	Date        time.Time `json:"date"`
	Rank        int       `json:"rank"`
	Height      float64   `json:"height,omitempty"`
	Description string    `json:"description,omitempty"`
}

// MarshalJSON exposes the shared read surface plus the kind-specific field.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		Kind:        e.kind,
		Type:        e.typ,
		Date:        e.date,
		Rank:        e.rank,
		Height:      e.height,
		Description: e.description,
	})
}

// SortEvents returns a copy of events ordered by date. Events on the same day
// keep their relative order.
func SortEvents(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out
}
