package reconciliation

import (
	"strings"
	"unicode"
)

// nicknameToAbbreviation maps each franchise nickname to its abbreviation
var nicknameToAbbreviation = map[string]string{
	"hawks":        "ATL",
	"celtics":      "BOS",
	"nets":         "BKN",
	"hornets":      "CHA",
	"bulls":        "CHI",
	"cavaliers":    "CLE",
	"cavs":         "CLE",
	"mavericks":    "DAL",
	"mavs":         "DAL",
	"nuggets":      "DEN",
	"pistons":      "DET",
	"warriors":     "GSW",
	"rockets":      "HOU",
	"pacers":       "IND",
	"clippers":     "LAC",
	"lakers":       "LAL",
	"grizzlies":    "MEM",
	"heat":         "MIA",
	"bucks":        "MIL",
	"timberwolves": "MIN",
	"wolves":       "MIN",
	"pelicans":     "NOP",
	"knicks":       "NYK",
	"thunder":      "OKC",
	"magic":        "ORL",
	"76ers":        "PHI",
	"sixers":       "PHI",
	"suns":         "PHX",
	"blazers":      "POR",
	"kings":        "SAC",
	"spurs":        "SAS",
	"raptors":      "TOR",
	"jazz":         "UTA",
	"wizards":      "WAS",
}

// abbreviations is the set of known abbreviations
var abbreviations = func() map[string]bool {
	set := make(map[string]bool, len(nicknameToAbbreviation))
	for _, abbr := range nicknameToAbbreviation {
		set[abbr] = true
	}
	return set
}()

// TeamAbbreviation resolves a team name ("Boston Celtics", "Celtics", "BOS")
// to its abbreviation. Matching is by whole word, so "Hornets" never
// resolves to the Nets. ok is false for unknown names.
func TeamAbbreviation(name string) (string, bool) {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	if len(words) == 1 {
		if upper := strings.ToUpper(words[0]); abbreviations[upper] {
			return upper, true
		}
	}

	// the nickname is usually last ("Portland Trail Blazers"), so scan backwards
	for i := len(words) - 1; i >= 0; i-- {
		if abbr, ok := nicknameToAbbreviation[words[i]]; ok {
			return abbr, true
		}
	}
	return "", false
}
