package match

import (
	"testing"
	"time"
)

func TestMatch_TeamNames(t *testing.T) {
	kickoff := time.Date(2024, 5, 12, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		home     Team
		away     Team
		wantHome string
		wantAway string
	}{
		{
			name:     "played fixture carries scores",
			home:     Team{Name: "Home", Score: "2"},
			away:     Team{Name: "Away", Score: "1"},
			wantHome: "Home (2)",
			wantAway: "(1) Away",
		},
		{
			name:     "unplayed fixture is unannotated",
			home:     Team{Name: "Home"},
			away:     Team{Name: "Away"},
			wantHome: "Home",
			wantAway: "Away",
		},
		{
			name:     "goalless draw still annotated",
			home:     Team{Name: "Home", Score: "0"},
			away:     Team{Name: "Away", Score: "0"},
			wantHome: "Home (0)",
			wantAway: "(0) Away",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Match{Home: tt.home, Away: tt.away, Kickoff: kickoff, Competition: "Brasileirão"}
			if got := m.HomeTeam(); got != tt.wantHome {
				t.Errorf("HomeTeam() = %q, want %q", got, tt.wantHome)
			}
			if got := m.AwayTeam(); got != tt.wantAway {
				t.Errorf("AwayTeam() = %q, want %q", got, tt.wantAway)
			}
		})
	}
}

func TestMatch_Title(t *testing.T) {
	m := Match{
		Home:        Team{Name: "Atlético Mineiro", Score: "2"},
		Away:        Team{Name: "Cruzeiro", Score: "1"},
		Kickoff:     time.Date(2024, 5, 12, 19, 0, 0, 0, time.UTC),
		Competition: "Brasileirão",
	}

	want := "[Brasileirão] Atlético Mineiro (2) - (1) Cruzeiro"
	if got := m.Title(); got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}
}

func TestMatch_ID(t *testing.T) {
	kickoff := time.Date(2024, 5, 12, 19, 0, 0, 0, time.UTC)
	unplayed := Match{Home: Team{Name: "A"}, Away: Team{Name: "B"}, Kickoff: kickoff, Competition: "Cup"}
	played := unplayed
	played.Home.Score = "3"
	played.Away.Score = "0"

	if unplayed.ID() != played.ID() {
		t.Error("ID() should not change once the score is known")
	}

	if len(unplayed.ID()) != 40 { // SHA1 produces 40 hex characters
		t.Errorf("expected ID length of 40, got %d", len(unplayed.ID()))
	}

	// Same instant in another zone is the same fixture
	sameInstant := unplayed
	sameInstant.Kickoff = kickoff.In(time.FixedZone("BRT", -3*60*60))
	if sameInstant.ID() != unplayed.ID() {
		t.Error("ID() should depend on the kickoff instant, not its zone")
	}

	other := unplayed
	other.Kickoff = kickoff.Add(24 * time.Hour)
	if other.ID() == unplayed.ID() {
		t.Error("different kickoffs should produce different IDs")
	}
}

func TestMatch_Validate(t *testing.T) {
	valid := Match{
		Home:        Team{Name: "A"},
		Away:        Team{Name: "B"},
		Kickoff:     time.Date(2024, 5, 12, 19, 0, 0, 0, time.UTC),
		Competition: "Cup",
	}

	tests := []struct {
		name    string
		mutate  func(*Match)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Match) {}},
		{name: "missing home", mutate: func(m *Match) { m.Home.Name = "" }, wantErr: true},
		{name: "missing away", mutate: func(m *Match) { m.Away.Name = "" }, wantErr: true},
		{name: "missing competition", mutate: func(m *Match) { m.Competition = "" }, wantErr: true},
		{name: "missing kickoff", mutate: func(m *Match) { m.Kickoff = time.Time{} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			err := m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
