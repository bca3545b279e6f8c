package decision

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type checkGame struct {
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	Bookmakers []struct {
		Key     string `json:"key"`
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name  string  `json:"name"`
				Price float64 `json:"price"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// Crosscheck compares the pick with the game object it came with and
// returns one message per inconsistency. An empty result means the pick
// matches a quoted price.
func Crosscheck(rec Recommendation) []string {
	var g checkGame
	if err := json.Unmarshal(rec.Game, &g); err != nil {
		return []string{fmt.Sprintf("game object is unreadable: %v", err)}
	}

	var problems []string
	team := strings.TrimSpace(rec.Pick.Team)
	market := rec.PickMarket()
	if !strings.EqualFold(team, g.HomeTeam) && !strings.EqualFold(team, g.AwayTeam) {
		problems = append(problems, fmt.Sprintf("picked team %q plays in neither side of %s vs %s", team, g.AwayTeam, g.HomeTeam))
	}

	for _, b := range g.Bookmakers {
		if b.Key != strings.TrimSpace(rec.Pick.Bookmaker) {
			continue
		}
		for _, m := range b.Markets {
			if m.Key != market {
				continue
			}
			for _, o := range m.Outcomes {
				if !strings.EqualFold(o.Name, team) {
					continue
				}
				if math.Abs(o.Price-rec.Pick.Price) > 1e-9 {
					problems = append(problems, fmt.Sprintf("%s quotes %s at %v, pick says %v", b.Key, o.Name, o.Price, rec.Pick.Price))
				}
				return problems
			}
		}
		return append(problems, fmt.Sprintf("%s has no %s price for %s", b.Key, market, team))
	}
	return append(problems, fmt.Sprintf("bookmaker %q is not in the game object", rec.Pick.Bookmaker))
}
