package match

import (
	"strings"
	"time"
)

// ChangeType classifies a difference between two fixture listings
type ChangeType string

const (
	ChangeNew     ChangeType = "new"
	ChangeRemoved ChangeType = "removed"
	ChangeKickoff ChangeType = "kickoff"
	ChangeScore   ChangeType = "score"
)

// Change represents one difference detected between two listings
type Change struct {
	Match    Match      `json:"match"`
	Type     ChangeType `json:"change_type"`
	OldValue string     `json:"old_value,omitempty"`
	NewValue string     `json:"new_value,omitempty"`
}

// StableKey identifies a fixture across refreshes. Unlike ID it ignores the
// kickoff, so a rescheduled match keeps its key.
func (m Match) StableKey() string {
	return strings.ToLower(m.Competition + "|" + m.Home.Name + "|" + m.Away.Name)
}

func (m Match) score() string {
	if !m.Home.Played() && !m.Away.Played() {
		return ""
	}
	return m.Home.Score + "-" + m.Away.Score
}

// Diff compares a previous listing with the current one. Fixtures are
// paired by StableKey in listing order; changes follow the current order,
// with removed fixtures last.
func Diff(previous, current []Match) []Change {
	pending := make(map[string][]Match, len(previous))
	for _, m := range previous {
		k := m.StableKey()
		pending[k] = append(pending[k], m)
	}

	paired := make(map[string]int)
	var changes []Change
	for _, cur := range current {
		k := cur.StableKey()
		if paired[k] >= len(pending[k]) {
			changes = append(changes, Change{Match: cur, Type: ChangeNew, NewValue: cur.Title()})
			continue
		}
		prev := pending[k][paired[k]]
		paired[k]++
		changes = append(changes, DetectChanges(prev, cur)...)
	}

	// The first paired[k] previous fixtures of each key were matched above
	for _, m := range previous {
		k := m.StableKey()
		if paired[k] > 0 {
			paired[k]--
			continue
		}
		changes = append(changes, Change{Match: m, Type: ChangeRemoved, OldValue: m.Title()})
	}
	return changes
}

// DetectChanges compares two versions of the same fixture
func DetectChanges(previous, current Match) []Change {
	var changes []Change

	if !previous.Kickoff.Equal(current.Kickoff) {
		changes = append(changes, Change{
			Match:    current,
			Type:     ChangeKickoff,
			OldValue: previous.Kickoff.UTC().Format(time.RFC3339),
			NewValue: current.Kickoff.UTC().Format(time.RFC3339),
		})
	}

	if previous.score() != current.score() {
		changes = append(changes, Change{
			Match:    current,
			Type:     ChangeScore,
			OldValue: previous.score(),
			NewValue: current.score(),
		})
	}

	return changes
}

// CountChanges tallies changes by type
func CountChanges(changes []Change) map[ChangeType]int {
	counts := make(map[ChangeType]int)
	for _, c := range changes {
		counts[c.Type]++
	}
	return counts
}
