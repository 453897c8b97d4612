package calendar

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/pfrederiksen/fixtures-ics/internal/match"
)

const (
	ProductID = "-//Fixtures ICS//fixtures-ics//EN"
	uidDomain = "fixtures-ics"
)

type options struct {
	name  string
	stamp time.Time
}

// Option configures Build
type Option func(*options)

// WithName sets the calendar display name (X-WR-CALNAME)
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithStamp sets DTSTAMP on every event. Passing the capture time of the
// fixtures keeps the output identical for identical input.
func WithStamp(t time.Time) Option {
	return func(o *options) {
		o.stamp = t
	}
}

// Build converts matches into a calendar with one event per match.
// Events keep the order of matches; nothing is sorted or deduplicated, and
// repeated fixtures get distinct UIDs.
func Build(matches []match.Match, eventLength time.Duration, opts ...Option) *ical.Calendar {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.stamp.IsZero() {
		o.stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetCalscale("GREGORIAN")
	if o.name != "" {
		cal.SetXWRCalName(o.name)
	}

	seen := make(map[string]int, len(matches))
	for _, m := range matches {
		id := m.ID()
		seen[id]++
		addEvent(cal, uid(id, seen[id]), m, eventLength, o.stamp)
	}

	return cal
}

// uid numbers repeated listings of the same fixture so clients keep them apart
func uid(id string, n int) string {
	if n > 1 {
		return fmt.Sprintf("%s-%d@%s", id, n, uidDomain)
	}
	return fmt.Sprintf("%s@%s", id, uidDomain)
}

func addEvent(cal *ical.Calendar, eventUID string, m match.Match, eventLength time.Duration, stamp time.Time) {
	evt := cal.AddEvent(eventUID)
	evt.SetDtStampTime(stamp)
	evt.SetStartAt(m.Kickoff)
	evt.SetEndAt(m.Kickoff.Add(eventLength))
	evt.SetSummary(m.Title())
	evt.SetDescription(description(m))
	evt.SetStatus(ical.ObjectStatusConfirmed)
}

func description(m match.Match) string {
	d := fmt.Sprintf("%s\n%s vs %s", m.Competition, m.Home.Name, m.Away.Name)
	if m.Home.Played() && m.Away.Played() {
		d += fmt.Sprintf("\nFinal score: %s-%s", m.Home.Score, m.Away.Score)
	}
	return d
}

// Serialize renders the calendar as iCalendar text
func Serialize(cal *ical.Calendar) string {
	return cal.Serialize()
}

// Write renders the calendar to w
func Write(w io.Writer, cal *ical.Calendar) error {
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}
