// Package scraper provides HTTP fetching and HTML parsing for fixtures listings.
//
// The Fetcher downloads the public fixtures page of a team or competition from
// onefootball.com. Parse extracts the match cards from that page in listing
// order: kickoff time, the two teams with their scores once played, and the
// competition name. Team pages name the competition on every card because a
// team plays in several tournaments, while competition pages carry it once in
// the page heading. Any card that does not have the expected shape aborts the
// parse with a ParseError; partial results are never returned.
package scraper
