package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/fixtures-ics/internal/match"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByListing     SortOrder = "listing"
	SortByKickoff     SortOrder = "kickoff"
	SortByCompetition SortOrder = "competition"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortByListing, SortByKickoff, SortByCompetition:
		return o, nil
	case "":
		return SortByListing, nil
	default:
		return "", fmt.Errorf("invalid sort: %s (must be 'listing', 'kickoff' or 'competition')", s)
	}
}

// sortMatches returns matches in the requested order. Listing order is the
// order of the source page and is returned untouched.
func sortMatches(matches []match.Match, order SortOrder) []match.Match {
	if order == SortByListing || order == "" {
		return matches
	}

	sorted := append([]match.Match(nil), matches...)
	switch order {
	case SortByKickoff:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Kickoff.Before(sorted[j].Kickoff)
		})
	case SortByCompetition:
		sort.SliceStable(sorted, func(i, j int) bool {
			ci, cj := strings.ToLower(sorted[i].Competition), strings.ToLower(sorted[j].Competition)
			if ci != cj {
				return ci < cj
			}
			// Same competition: earliest kickoff first
			return sorted[i].Kickoff.Before(sorted[j].Kickoff)
		})
	}
	return sorted
}
