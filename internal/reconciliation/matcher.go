package reconciliation

import (
	"log"
	"strings"

	"github.com/fortuna/totals/internal/ingest/odds"
)

// Matcher maps team names from the odds feed onto the names a season
// dataset uses
type Matcher struct {
	byName map[string]string // lower-case name -> dataset name
	byAbbr map[string]string // abbreviation -> dataset name
}

// NewMatcher indexes the dataset's team names. When two dataset names share
// an abbreviation, the first one wins.
func NewMatcher(datasetTeams []string) *Matcher {
	m := &Matcher{
		byName: make(map[string]string, len(datasetTeams)),
		byAbbr: make(map[string]string, len(datasetTeams)),
	}
	for _, name := range datasetTeams {
		m.byName[strings.ToLower(strings.TrimSpace(name))] = name
		if abbr, ok := TeamAbbreviation(name); ok {
			if _, taken := m.byAbbr[abbr]; !taken {
				m.byAbbr[abbr] = name
			}
		}
	}
	return m
}

// Canonical returns the dataset name for a feed name. An exact
// case-insensitive match wins over an abbreviation match.
func (m *Matcher) Canonical(name string) (string, bool) {
	if canonical, ok := m.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return canonical, true
	}
	if abbr, ok := TeamAbbreviation(name); ok {
		if canonical, ok := m.byAbbr[abbr]; ok {
			return canonical, true
		}
	}
	return "", false
}

// ReconcileGames returns copies of games with both team names rewritten to
// dataset names. Unmatched names are kept as they are.
func (m *Matcher) ReconcileGames(games []odds.LiveGame) []odds.LiveGame {
	reconciled := make([]odds.LiveGame, len(games))
	for i, g := range games {
		g.HomeTeam = m.resolve(g.HomeTeam)
		g.AwayTeam = m.resolve(g.AwayTeam)
		reconciled[i] = g
	}
	return reconciled
}

func (m *Matcher) resolve(name string) string {
	if canonical, ok := m.Canonical(name); ok {
		return canonical
	}
	log.Printf("[reconcile] ⊘ No dataset team for %q", name)
	return name
}
