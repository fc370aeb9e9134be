// Package timeline merges a case's evidence streams into one ordered view.
package timeline

import (
	"cmp"
	"forensiai/backend/internal/models"
	"iter"
	"slices"
	"time"
)

// Event is one timeline entry. Exactly one of the record pointers is set;
// it points into the snapshot the event was assembled from.
type Event struct {
	Kind      models.Kind `json:"kind"`
	Timestamp string      `json:"timestamp"`
	// Index is the record's position within its own collection.
	Index int `json:"-"`

	Call     *models.CallRecord     `json:"call,omitempty"`
	Message  *models.MessageRecord  `json:"message,omitempty"`
	Location *models.LocationRecord `json:"location,omitempty"`
	Media    *models.MediaRecord    `json:"media,omitempty"`

	at    time.Time
	valid bool
}

// ID returns the id of the underlying record.
func (e Event) ID() string {
	return e.Record().EvidenceID()
}

// Record returns the underlying evidence as the shared interface.
func (e Event) Record() models.Evidence {
	switch {
	case e.Call != nil:
		return e.Call
	case e.Message != nil:
		return e.Message
	case e.Location != nil:
		return e.Location
	default:
		return e.Media
	}
}

// Time returns the parsed timestamp and whether it parsed.
func (e Event) Time() (time.Time, bool) {
	return e.at, e.valid
}

// Assemble returns the case's evidence ordered by timestamp. Each iteration
// reads the snapshot afresh, so the sequence can be ranged over repeatedly.
func Assemble(c *models.Case) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, ev := range Collect(c) {
			if !yield(ev) {
				return
			}
		}
	}
}

// Collect is Assemble materialized into a slice.
func Collect(c *models.Case) []Event {
	if c == nil {
		return nil
	}
	events := make([]Event, 0, len(c.Calls)+len(c.Messages)+len(c.Locations)+len(c.Media))
	for i := range c.Calls {
		events = append(events, newEvent(models.KindCall, c.Calls[i].Timestamp, i, Event{Call: &c.Calls[i]}))
	}
	for i := range c.Messages {
		events = append(events, newEvent(models.KindMessage, c.Messages[i].Timestamp, i, Event{Message: &c.Messages[i]}))
	}
	for i := range c.Locations {
		events = append(events, newEvent(models.KindLocation, c.Locations[i].Timestamp, i, Event{Location: &c.Locations[i]}))
	}
	for i := range c.Media {
		events = append(events, newEvent(models.KindMedia, c.Media[i].Timestamp, i, Event{Media: &c.Media[i]}))
	}
	slices.SortStableFunc(events, compare)
	return events
}

// Filter keeps only events of the given kinds.
func Filter(seq iter.Seq[Event], kinds ...models.Kind) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for ev := range seq {
			if slices.Contains(kinds, ev.Kind) && !yield(ev) {
				return
			}
		}
	}
}

func newEvent(kind models.Kind, ts string, index int, ev Event) Event {
	ev.Kind = kind
	ev.Timestamp = ts
	ev.Index = index
	ev.at, ev.valid = models.ParseTimestamp(ts)
	return ev
}

// compare orders by time, then kind precedence, then collection order.
// Unparseable timestamps go after every parseable one.
func compare(a, b Event) int {
	if a.valid != b.valid {
		if a.valid {
			return -1
		}
		return 1
	}
	if a.valid {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.Kind.Rank(), b.Kind.Rank()); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}
