package match

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"time"
)

// Team is one side of a fixture
type Team struct {
	Name  string `json:"name"`
	Score string `json:"score,omitempty"` // empty until the match has been played
}

// Played reports whether the team has a score recorded
func (t Team) Played() bool {
	return t.Score != ""
}

// Match represents a single fixture from a fixtures listing
type Match struct {
	Home        Team      `json:"home"`
	Away        Team      `json:"away"`
	Kickoff     time.Time `json:"kickoff"`
	Competition string    `json:"competition"`
}

// HomeTeam returns the home team name, with a trailing score once played.
// Example: "Atlético Mineiro (2)"
func (m Match) HomeTeam() string {
	if m.Home.Played() {
		return fmt.Sprintf("%s (%s)", m.Home.Name, m.Home.Score)
	}
	return m.Home.Name
}

// AwayTeam returns the away team name, with a leading score once played.
// Example: "(1) Cruzeiro"
func (m Match) AwayTeam() string {
	if m.Away.Played() {
		return fmt.Sprintf("(%s) %s", m.Away.Score, m.Away.Name)
	}
	return m.Away.Name
}

// Title is the calendar event name for the match
func (m Match) Title() string {
	return fmt.Sprintf("[%s] %s - %s", m.Competition, m.HomeTeam(), m.AwayTeam())
}

// ID creates a deterministic identifier for the fixture.
// Scores are left out so the ID survives the match being played.
func (m Match) ID() string {
	h := sha1.New()
	h.Write([]byte(m.Competition + "|" + m.Home.Name + "|" + m.Away.Name + "|" + m.Kickoff.UTC().Format(time.RFC3339)))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Validate checks the fields every parsed match must carry
func (m Match) Validate() error {
	switch {
	case m.Home.Name == "" || m.Away.Name == "":
		return errors.New("match is missing a team name")
	case m.Competition == "":
		return errors.New("match is missing its competition")
	case m.Kickoff.IsZero():
		return errors.New("match is missing its kickoff time")
	}
	return nil
}

func (m Match) String() string {
	return fmt.Sprintf("%s @ %s", m.Title(), m.Kickoff.Format(time.RFC3339))
}
