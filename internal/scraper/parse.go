package scraper

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/fixtures-ics/internal/match"
)

// Markup of the fixtures page
const (
	cardSelector            = "li.simple-match-cards-list__match-card"
	pageCompetitionSelector = "p.title-2-bold"
	matchContentSelector    = "div.simple-match-card__match-content"
	teamsContentSelector    = "div.simple-match-card__teams-content"
	teamSelector            = "div.simple-match-card-team"
	teamNameSelector        = "span.simple-match-card-team__name"
	teamScoreSelector       = "span.simple-match-card-team__score"
	cardCompetitionSelector = "footer p"
)

// kickoffLayouts are tried in order against the time element's datetime attribute
var kickoffLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

// Parse extracts the fixtures listed on a page, in listing order
func Parse(kind match.Kind, r io.Reader) ([]match.Match, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Card: -1, Reason: "parsing HTML", Err: err}
	}
	return parseDocument(kind, doc.Selection)
}

func parseDocument(kind match.Kind, page *goquery.Selection) ([]match.Match, error) {
	var competitionOf func(card *goquery.Selection) (string, error)

	switch kind {
	case match.KindCompetition:
		// One competition for the whole page, read before any card
		name, err := pageCompetition(page)
		if err != nil {
			return nil, &ParseError{Card: -1, Reason: "reading competition", Err: err}
		}
		competitionOf = func(*goquery.Selection) (string, error) { return name, nil }
	case match.KindTeam:
		competitionOf = cardCompetition
	default:
		return nil, &ParseError{Card: -1, Reason: fmt.Sprintf("unsupported subject kind %v", kind)}
	}

	cards := page.Find(cardSelector)
	matches := make([]match.Match, 0, cards.Length())

	for i := range cards.Nodes {
		card := cards.Eq(i)

		kickoff, err := cardKickoff(card)
		if err != nil {
			return nil, &ParseError{Card: i, Reason: "reading kickoff", Err: err}
		}

		home, away, err := cardTeams(card)
		if err != nil {
			return nil, &ParseError{Card: i, Reason: "reading teams", Err: err}
		}

		competition, err := competitionOf(card)
		if err != nil {
			return nil, &ParseError{Card: i, Reason: "reading competition", Err: err}
		}

		m := match.Match{
			Home:        home,
			Away:        away,
			Kickoff:     kickoff,
			Competition: competition,
		}
		if err := m.Validate(); err != nil {
			return nil, &ParseError{Card: i, Reason: "invalid match", Err: err}
		}
		matches = append(matches, m)
	}

	return matches, nil
}

// pageCompetition reads the competition heading of a competition page
func pageCompetition(page *goquery.Selection) (string, error) {
	heading := page.Find(pageCompetitionSelector).First()
	if heading.Length() == 0 {
		return "", errors.New("competition heading not found")
	}
	name := text(heading)
	if name == "" {
		return "", errors.New("competition heading is empty")
	}
	return name, nil
}

// cardCompetition reads the competition from a card footer
func cardCompetition(card *goquery.Selection) (string, error) {
	p := card.Find(cardCompetitionSelector).First()
	if p.Length() == 0 {
		return "", errors.New("card footer not found")
	}
	name := text(p)
	if name == "" {
		return "", errors.New("card footer is empty")
	}
	return name, nil
}

// cardKickoff reads the machine-readable kickoff time of a card.
// The offset stated by the page is kept as is.
func cardKickoff(card *goquery.Selection) (time.Time, error) {
	content := card.Find(matchContentSelector).First()
	if content.Length() == 0 {
		return time.Time{}, errors.New("match content not found")
	}
	tm := content.Find("time").First()
	if tm.Length() == 0 {
		return time.Time{}, errors.New("time element not found")
	}
	raw, ok := tm.Attr("datetime")
	if !ok || strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.New("time element has no datetime attribute")
	}
	return parseKickoff(strings.TrimSpace(raw))
}

func parseKickoff(raw string) (time.Time, error) {
	for _, layout := range kickoffLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", raw)
}

// cardTeams reads the home and away blocks of a card
func cardTeams(card *goquery.Selection) (home, away match.Team, err error) {
	content := card.Find(teamsContentSelector).First()
	if content.Length() == 0 {
		return home, away, errors.New("teams content not found")
	}

	blocks := content.Find(teamSelector)
	if n := blocks.Length(); n != 2 {
		return home, away, fmt.Errorf("expected 2 teams, found %d", n)
	}

	if home, err = cardTeam(blocks.Eq(0)); err != nil {
		return home, away, fmt.Errorf("home team: %w", err)
	}
	if away, err = cardTeam(blocks.Eq(1)); err != nil {
		return home, away, fmt.Errorf("away team: %w", err)
	}
	return home, away, nil
}

func cardTeam(block *goquery.Selection) (match.Team, error) {
	name, err := teamName(block)
	if err != nil {
		return match.Team{}, err
	}
	return match.Team{Name: name, Score: teamScore(block)}, nil
}

// teamName reads a team's display name
func teamName(block *goquery.Selection) (string, error) {
	span := block.Find(teamNameSelector).First()
	if span.Length() == 0 {
		return "", errors.New("team name not found")
	}
	name := text(span)
	if name == "" {
		return "", errors.New("team name is empty")
	}
	return name, nil
}

// teamScore reads a team's score; empty means not yet played
func teamScore(block *goquery.Selection) string {
	return text(block.Find(teamScoreSelector).First())
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}
