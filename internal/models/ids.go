package models

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator synthesizes evidence ids for records that arrive without one.
// Ids are derived from the case id, the kind and a per-(case, kind) counter,
// never from the wall clock, so rapid synthesis cannot collide.
type IDGenerator struct {
	mu       sync.Mutex
	counters map[string]uint64
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{counters: make(map[string]uint64)}
}

// Next returns the next id for caseID and kind.
func (g *IDGenerator) Next(caseID string, kind Kind) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := caseID + "|" + string(kind)
	g.counters[key]++
	return fmt.Sprintf("%s_%s_%d", caseID, kind, g.counters[key])
}

// Observe advances the counter past an existing synthesized id so a later
// Next never reissues it.
func (g *IDGenerator) Observe(caseID string, kind Kind, id string) {
	rest, ok := strings.CutPrefix(id, caseID+"_"+string(kind)+"_")
	if !ok {
		return
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	key := caseID + "|" + string(kind)
	if n > g.counters[key] {
		g.counters[key] = n
	}
}

// AssignMissingIDs fills empty evidence ids in place and returns how many
// were assigned. Ids already present are left untouched, so calling it again
// on the same snapshot is a no-op and re-sync never forks rows.
func AssignMissingIDs(c *Case, g *IDGenerator) int {
	for _, r := range c.Calls {
		g.Observe(c.ID, KindCall, r.ID)
	}
	for _, r := range c.Messages {
		g.Observe(c.ID, KindMessage, r.ID)
	}
	for _, r := range c.Locations {
		g.Observe(c.ID, KindLocation, r.ID)
	}
	for _, r := range c.Media {
		g.Observe(c.ID, KindMedia, r.ID)
	}

	assigned := 0
	for i := range c.Calls {
		if c.Calls[i].ID == "" {
			c.Calls[i].ID = g.Next(c.ID, KindCall)
			assigned++
		}
	}
	for i := range c.Messages {
		if c.Messages[i].ID == "" {
			c.Messages[i].ID = g.Next(c.ID, KindMessage)
			assigned++
		}
	}
	for i := range c.Locations {
		if c.Locations[i].ID == "" {
			c.Locations[i].ID = g.Next(c.ID, KindLocation)
			assigned++
		}
	}
	for i := range c.Media {
		if c.Media[i].ID == "" {
			c.Media[i].ID = g.Next(c.ID, KindMedia)
			assigned++
		}
	}
	return assigned
}

// NewCaseID returns an id of the form CASE-<year>-<4 digits>.
func NewCaseID(now time.Time) string {
	return fmt.Sprintf("CASE-%d-%04d", now.Year(), 1000+rand.IntN(9000))
}

func NewMessageID() string  { return uuid.NewString() }
func NewCommentID() string  { return uuid.NewString() }
func NewActivityID() string { return uuid.NewString() }

// Now returns the current time in the ISO-8601 form used for evidence timestamps.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
