// Package match provides the fixture types shared by the scraper, the cache
// pipeline and the calendar builder.
//
// A Match is one fixture between two teams within a competition. Played
// fixtures carry their score on each Team, and the display helpers fold that
// score into the team names so the result shows up in calendar titles.
// A Subject names the team or competition whose fixtures are requested and
// derives the deterministic cache key for it.
package match
