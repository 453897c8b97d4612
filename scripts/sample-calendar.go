package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/fixtures-ics/internal/calendar"
	"github.com/pfrederiksen/fixtures-ics/internal/match"
)

func main() {
	// Sample fixtures: one played, one upcoming
	kickoff := time.Now().Add(72 * time.Hour).Truncate(time.Hour)
	matches := []match.Match{
		{
			Home:        match.Team{Name: "Atlético Mineiro", Score: "2"},
			Away:        match.Team{Name: "Cruzeiro", Score: "1"},
			Kickoff:     time.Now().Add(-96 * time.Hour).Truncate(time.Hour),
			Competition: "Brasileirão Série A",
		},
		{
			Home:        match.Team{Name: "Peñarol"},
			Away:        match.Team{Name: "Atlético Mineiro"},
			Kickoff:     kickoff,
			Competition: "CONMEBOL Libertadores",
		},
	}

	cal := calendar.Build(matches, 2*time.Hour, calendar.WithName("Sample fixtures"))
	icsContent := calendar.Serialize(cal)

	filename := "sample-fixtures.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
