package sports

import (
	"strings"
	"time"

	"oddsy/internal/tool"
)

// League codes accepted by every tool in this family.
const (
	LeagueNBA = "nba"
	LeagueNFL = "nfl"
	LeagueMLB = "mlb"
)

var supportedLeagues = []string{LeagueNBA, LeagueNFL, LeagueMLB}

// Host segments under api-sports.io.
var leagueHosts = map[string]string{
	LeagueNBA: "nba",
	LeagueNFL: "american-football",
	LeagueMLB: "baseball",
}

// League identifiers expected by the league= query parameter.
var leagueIDs = map[string]string{
	LeagueNBA: "standard",
	LeagueNFL: "1",
	LeagueMLB: "1",
}

var leagueSynonyms = map[string]string{
	"basketball_nba":       LeagueNBA,
	"basketball":           LeagueNBA,
	"americanfootball_nfl": LeagueNFL,
	"football":             LeagueNFL,
	"baseball_mlb":         LeagueMLB,
	"baseball":             LeagueMLB,
}

// NormalizeLeague maps an Odds API sport key or common name onto a league
// code.
func NormalizeLeague(sport string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(sport))
	if l, ok := leagueSynonyms[key]; ok {
		key = l
	}
	if _, ok := leagueHosts[key]; !ok {
		return "", tool.Invalid("Unsupported sport: %s. Supported sports are: %s", sport, strings.Join(supportedLeagues, ", "))
	}
	return key, nil
}

// CurrentSeason returns the season year in effect at now. Seasons are
// labelled by the year they start, and a new one starts in October.
func CurrentSeason(now time.Time) int {
	if now.Month() < time.October {
		return now.Year() - 1
	}
	return now.Year()
}
