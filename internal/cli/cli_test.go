package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pfrederiksen/fixtures-ics/internal/match"
)

const fixturesPage = `<html><body><ul class="simple-match-cards-list">
<li class="simple-match-cards-list__match-card">
	<div class="simple-match-card__teams-content">
		<div class="simple-match-card-team"><span class="simple-match-card-team__name">Atlético Mineiro</span></div>
		<div class="simple-match-card-team"><span class="simple-match-card-team__name">Palmeiras</span></div>
	</div>
	<div class="simple-match-card__match-content"><time datetime="2024-06-01T21:00:00Z"></time></div>
	<footer><p>Brasileirão Série A</p></footer>
</li>
<li class="simple-match-cards-list__match-card">
	<div class="simple-match-card__teams-content">
		<div class="simple-match-card-team"><span class="simple-match-card-team__name">Cruzeiro</span><span class="simple-match-card-team__score">1</span></div>
		<div class="simple-match-card-team"><span class="simple-match-card-team__name">Atlético Mineiro</span><span class="simple-match-card-team__score">2</span></div>
	</div>
	<div class="simple-match-card__match-content"><time datetime="2024-05-12T19:00:00Z"></time></div>
	<footer><p>Brasileirão Série A</p></footer>
</li>
</ul></body></html>`

// fixturesSite serves fixturesPage for the known team and 404 otherwise
func fixturesSite(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/team/atletico-mineiro-1683/fixtures" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, fixturesPage)
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func writeTestConfig(t *testing.T, baseURL string, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`source:
  base_url: %s
cache:
  backend: file
  dir: %s
log:
  level: error
%s`, baseURL, filepath.Join(dir, "cache"), extra)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCalendarCmd(t *testing.T) {
	ts, hits := fixturesSite(t)
	cfgPath := writeTestConfig(t, ts.URL, "")

	out, err := run(t, "--config", cfgPath, "calendar", "team", "atletico-mineiro-1683", "--event-length", "90m")
	if err != nil {
		t.Fatalf("calendar error: %v", err)
	}

	if !strings.HasPrefix(out, "BEGIN:VCALENDAR") {
		t.Errorf("output is not a calendar: %q", out)
	}
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("got %d events, want 2", got)
	}
	if !strings.Contains(out, "DURATION") && !strings.Contains(out, "DTEND") {
		t.Errorf("events have no end: %q", out)
	}

	// The file cache serves the second run
	if _, err := run(t, "--config", cfgPath, "calendar", "team/atletico-mineiro-1683"); err != nil {
		t.Fatalf("second calendar error: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("site hit %d times, want 1", hits.Load())
	}
}

func TestCalendarCmd_OutputFile(t *testing.T) {
	ts, _ := fixturesSite(t)
	cfgPath := writeTestConfig(t, ts.URL, "")
	target := filepath.Join(t.TempDir(), "atletico.ics")

	if _, err := run(t, "--config", cfgPath, "calendar", "team", "atletico-mineiro-1683", "-o", target); err != nil {
		t.Fatalf("calendar error: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "END:VCALENDAR") {
		t.Errorf("file is not a calendar: %q", data)
	}
}

func TestCalendarCmd_Errors(t *testing.T) {
	ts, _ := fixturesSite(t)
	cfgPath := writeTestConfig(t, ts.URL, "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown team", []string{"calendar", "team", "nobody-0"}, "404"},
		{"bad kind", []string{"calendar", "player", "x-1"}, "unknown subject kind"},
		{"bad reference", []string{"calendar", "atletico-mineiro-1683"}, "want kind/id"},
		{"no args", []string{"calendar"}, "accepts between 1 and 2 arg(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--config", cfgPath}, tt.args...)...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestMatchesCmd_JSON(t *testing.T) {
	ts, _ := fixturesSite(t)
	cfgPath := writeTestConfig(t, ts.URL, "")

	out, err := run(t, "--config", cfgPath, "matches", "team", "atletico-mineiro-1683", "--format", "json", "--sort", "kickoff")
	if err != nil {
		t.Fatalf("matches error: %v", err)
	}

	var result OutputResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result.MatchCount != 2 || result.Subject != "team/atletico-mineiro-1683" {
		t.Errorf("result = %+v", result)
	}
	if !result.Matches[0].Kickoff.Before(result.Matches[1].Kickoff) {
		t.Error("matches not sorted by kickoff")
	}
	if result.LastUpdated.IsZero() {
		t.Error("last_updated missing")
	}
}

func TestMatchesCmd_Text(t *testing.T) {
	ts, _ := fixturesSite(t)
	cfgPath := writeTestConfig(t, ts.URL, "")

	out, err := run(t, "--config", cfgPath, "matches", "team/atletico-mineiro-1683")
	if err != nil {
		t.Fatalf("matches error: %v", err)
	}
	if !strings.Contains(out, "[Brasileirão Série A] Atlético Mineiro - Palmeiras") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "Total: 2 matches") {
		t.Errorf("output = %q", out)
	}
}

func TestMatchesCmd_InvalidFlags(t *testing.T) {
	ts, _ := fixturesSite(t)
	cfgPath := writeTestConfig(t, ts.URL, "")

	if _, err := run(t, "--config", cfgPath, "matches", "team/x-1", "--format", "xml"); err == nil {
		t.Error("expected error for invalid format")
	}
	if _, err := run(t, "--config", cfgPath, "matches", "team/x-1", "--sort", "random"); err == nil {
		t.Error("expected error for invalid sort")
	}
}

func TestWarmCmd(t *testing.T) {
	ts, hits := fixturesSite(t)
	cfgPath := writeTestConfig(t, ts.URL, "warm:\n  subjects: [team/atletico-mineiro-1683]\n")

	if _, err := run(t, "--config", cfgPath, "warm"); err != nil {
		t.Fatalf("warm error: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("site hit %d times, want 1", hits.Load())
	}

	// Warming an unknown subject reports the failure
	if _, err := run(t, "--config", cfgPath, "warm", "team/nobody-0"); err == nil {
		t.Error("expected error for unknown subject")
	}
}

func TestSortMatches(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	matches := []match.Match{
		{Competition: "Libertadores", Kickoff: base.Add(48 * time.Hour)},
		{Competition: "Brasileirão", Kickoff: base.Add(72 * time.Hour)},
		{Competition: "Brasileirão", Kickoff: base},
	}

	tests := []struct {
		order SortOrder
		want  []int // indexes into matches
	}{
		{SortByListing, []int{0, 1, 2}},
		{SortByKickoff, []int{2, 0, 1}},
		{SortByCompetition, []int{2, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			got := sortMatches(matches, tt.order)
			for i, idx := range tt.want {
				if !got[i].Kickoff.Equal(matches[idx].Kickoff) {
					t.Errorf("position %d = %v, want %v", i, got[i], matches[idx])
				}
			}
		})
	}

	// Sorting never reorders the caller's slice
	if !matches[0].Kickoff.Equal(base.Add(48 * time.Hour)) {
		t.Error("sortMatches modified its input")
	}
}

func TestWriteOutput_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, &OutputResult{Subject: "competition/empty-1"}, FormatText, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No matches found for competition/empty-1.") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	if err := WriteOutput(&buf, &OutputResult{Subject: "competition/empty-1"}, FormatJSON, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"matches": []`) {
		t.Errorf("output = %q", buf.String())
	}
}
