package odds

import (
	"strings"

	"oddsy/internal/tool"
)

// Canonical Odds API sport keys.
const (
	SportNBA = "basketball_nba"
	SportNFL = "americanfootball_nfl"
	SportMLB = "baseball_mlb"
	SportNHL = "icehockey_nhl"
	SportEPL = "soccer_epl"
	SportUFC = "mma_mixed_martial_arts"
)

// SupportedSports lists the canonical keys in display order.
var SupportedSports = []string{SportNBA, SportNFL, SportMLB, SportNHL, SportEPL, SportUFC}

var sportSynonyms = map[string]string{
	"nba":            SportNBA,
	"basketball":     SportNBA,
	"nfl":            SportNFL,
	"football":       SportNFL,
	"mlb":            SportMLB,
	"baseball":       SportMLB,
	"nhl":            SportNHL,
	"hockey":         SportNHL,
	"epl":            SportEPL,
	"premier league": SportEPL,
	"ufc":            SportUFC,
	"mma":            SportUFC,
}

// NormalizeSport maps a league name or synonym onto its canonical key.
func NormalizeSport(sport string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(sport))
	if canonical, ok := sportSynonyms[key]; ok {
		key = canonical
	}
	for _, s := range SupportedSports {
		if s == key {
			return key, nil
		}
	}
	return "", tool.Invalid("invalid sport key: %s. Valid keys are: %s", sport, strings.Join(SupportedSports, ", "))
}

// Bookmakers kept in odds payloads.
var bookmakerAllowlist = map[string]bool{
	"pinnacle":   true,
	"draftkings": true,
	"fanduel":    true,
	"betmgm":     true,
	"caesars":    true,
	"bovada":     true,
}
