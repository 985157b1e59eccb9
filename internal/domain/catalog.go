package domain

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// semanticPriority ranks calendar events by type.
var semanticPriority = map[EventType]int{
	TypeLockdownStart: 5,
	TypeVaccine:       4,
	TypeLockdownEnd:   3,
}

// SemanticRank returns the static priority for a calendar event type, or 0
// for types outside the table.
func SemanticRank(t EventType) int {
	return semanticPriority[t]
}

// DefaultCatalog returns the calendar events of the UK pandemic timeline.
func DefaultCatalog() []Event {
	d := func(s string) time.Time {
		t, _ := time.Parse(time.DateOnly, s)
		return t
	}
	return []Event{
		NewSemanticEvent(d("2020-03-24"), TypeLockdownStart, "Start of First Lockdown."),
		NewSemanticEvent(d("2020-05-28"), TypeLockdownEnd, "End of First Lockdown."),
		NewSemanticEvent(d("2021-01-05"), TypeLockdownStart, "Start of Second Lockdown."),
		NewSemanticEvent(d("2021-04-01"), TypeLockdownEnd, "End of Second Lockdown."),
		NewSemanticEvent(d("2020-12-08"), TypeVaccine, "UK begins rollout of Pfizer Vaccine."),
		NewSemanticEvent(d("2021-01-04"), TypeVaccine, "Astrazeneca Vaccine approved and begins being administered."),
		NewSemanticEvent(d("2021-04-13"), TypeVaccine, "Moderna Vaccine rollout begins in the UK."),
		NewSemanticEvent(d("2021-09-16"), TypeVaccine, "Booster campaign in the UK starts."),
	}
}

// catalogEntry is one calendar event in a YAML catalog file:
//
//	- date: 2020-03-24
//	  type: LOCKDOWN_START
//	  description: Start of First Lockdown.
type catalogEntry struct {
	Date        string    `yaml:"date"`
	Type        EventType `yaml:"type"`
	Description string    `yaml:"description"`
}

// LoadCatalog reads calendar events from YAML. Ranks always come from the
// priority table; unknown types are rejected.
func LoadCatalog(r io.Reader) ([]Event, error) {
	var entries []catalogEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	events := make([]Event, 0, len(entries))
	for i, e := range entries {
		if SemanticRank(e.Type) == 0 {
			return nil, fmt.Errorf("catalog entry %d: unknown event type %q", i, e.Type)
		}
		date, err := ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		events = append(events, NewSemanticEvent(date, e.Type, e.Description))
	}
	return events, nil
}
