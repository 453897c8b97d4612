package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pfrederiksen/fixtures-ics/internal/match"
)

// Entry is what the cache holds for one subject
type Entry struct {
	Matches []match.Match `json:"matches"`
	// LastUpdated is when the matches were fetched and parsed, never when they were read back
	LastUpdated time.Time `json:"last_updated"`
}

// Fresh reports whether the entry may still be served at now.
// The boundary is inclusive: an entry exactly freshness old is fresh.
func (e Entry) Fresh(now time.Time, freshness time.Duration) bool {
	return !now.After(e.LastUpdated.Add(freshness))
}

// Encode serializes the entry for a cache.Store
func (e Entry) Encode() ([]byte, error) {
	if e.Matches == nil {
		e.Matches = []match.Match{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding cache entry: %w", err)
	}
	return data, nil
}

// DecodeEntry parses a payload written by Encode
func DecodeEntry(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decoding cache entry: %w", err)
	}
	if e.LastUpdated.IsZero() {
		return Entry{}, fmt.Errorf("decoding cache entry: missing last_updated")
	}
	return e, nil
}
