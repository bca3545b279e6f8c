package odds

type Sport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

type Outcome struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point,omitempty"`
	Description string   `json:"description,omitempty"`
}

type Market struct {
	Key        string    `json:"key"`
	LastUpdate string    `json:"last_update,omitempty"`
	Outcomes   []Outcome `json:"outcomes"`
}

type Bookmaker struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	LastUpdate string   `json:"last_update,omitempty"`
	Markets    []Market `json:"markets"`
}

// Game is an upcoming event with its bookmaker lines. Field names follow the
// upstream payload so the object can be handed back verbatim in a pick.
type Game struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers,omitempty"`
}

// Event is a scheduled game without lines.
type Event struct {
	ID           string `json:"id"`
	SportKey     string `json:"sport_key"`
	SportTitle   string `json:"sport_title"`
	CommenceTime string `json:"commence_time"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
}

type Score struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

type GameScore struct {
	ID           string  `json:"id"`
	SportKey     string  `json:"sport_key"`
	SportTitle   string  `json:"sport_title"`
	CommenceTime string  `json:"commence_time"`
	Completed    bool    `json:"completed"`
	HomeTeam     string  `json:"home_team"`
	AwayTeam     string  `json:"away_team"`
	Scores       []Score `json:"scores"`
	LastUpdate   *string `json:"last_update"`
}

// HistoricalSnapshot is the odds board as it stood at Timestamp.
type HistoricalSnapshot struct {
	Timestamp         string `json:"timestamp"`
	PreviousTimestamp string `json:"previous_timestamp"`
	NextTimestamp     string `json:"next_timestamp"`
	Data              []Game `json:"data"`
}

// filterBookmakers drops books outside the allowlist.
func filterBookmakers(books []Bookmaker) []Bookmaker {
	kept := make([]Bookmaker, 0, len(books))
	for _, b := range books {
		if bookmakerAllowlist[b.Key] {
			kept = append(kept, b)
		}
	}
	return kept
}

func normalizeGames(games []Game) []Game {
	for i := range games {
		games[i].Bookmakers = filterBookmakers(games[i].Bookmakers)
	}
	return games
}
