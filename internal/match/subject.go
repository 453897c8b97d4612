package match

import (
	"fmt"
	"strings"
)

// Kind selects which fixtures listing a subject refers to
type Kind int

const (
	KindTeam Kind = iota + 1
	KindCompetition
)

// ParseKind converts user input into a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "team":
		return KindTeam, nil
	case "competition", "comp":
		return KindCompetition, nil
	default:
		return 0, fmt.Errorf("unknown subject kind %q (must be 'team' or 'competition')", s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindTeam:
		return "team"
	case KindCompetition:
		return "competition"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the declared kinds
func (k Kind) Valid() bool {
	return k == KindTeam || k == KindCompetition
}

// Subject is the team or competition whose fixtures are requested
type Subject struct {
	Kind Kind
	ID   string
}

// NewSubject validates and builds a Subject
func NewSubject(kind Kind, id string) (Subject, error) {
	id = strings.TrimSpace(id)
	if !kind.Valid() {
		return Subject{}, fmt.Errorf("invalid subject kind: %v", kind)
	}
	if id == "" {
		return Subject{}, fmt.Errorf("%s id is required", kind)
	}
	if strings.ContainsAny(id, "/?#") {
		return Subject{}, fmt.Errorf("invalid %s id %q", kind, id)
	}
	return Subject{Kind: kind, ID: id}, nil
}

// ParseSubject parses a "kind/id" reference such as "team/atletico-mineiro-1683"
func ParseSubject(ref string) (Subject, error) {
	kind, id, ok := strings.Cut(ref, "/")
	if !ok {
		return Subject{}, fmt.Errorf("invalid subject %q (want kind/id)", ref)
	}
	k, err := ParseKind(kind)
	if err != nil {
		return Subject{}, err
	}
	return NewSubject(k, id)
}

// CacheKey returns the deterministic key for the subject's cached fixtures
func (s Subject) CacheKey() string {
	switch s.Kind {
	case KindTeam:
		return "team/" + s.ID
	case KindCompetition:
		return "comp/" + s.ID
	default:
		panic(fmt.Sprintf("match: cache key for invalid kind %v", s.Kind))
	}
}

// Path returns the subject's path segment on the fixtures site
func (s Subject) Path() string {
	switch s.Kind {
	case KindTeam:
		return "team/" + s.ID
	case KindCompetition:
		return "competition/" + s.ID
	default:
		panic(fmt.Sprintf("match: path for invalid kind %v", s.Kind))
	}
}

func (s Subject) String() string {
	return s.Kind.String() + "/" + s.ID
}
