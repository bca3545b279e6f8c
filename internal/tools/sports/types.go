package sports

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// envelope is the wrapper API-Sports puts around every payload.
type envelope[T any] struct {
	Results  int `json:"results"`
	Response T   `json:"response"`
}

// stat holds a value the API reports either as a number or a string.
type stat string

func (s *stat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = stat(strings.TrimSpace(str))
		return nil
	}
	*s = stat(data)
	return nil
}

func (s stat) float() (float64, bool) {
	f, err := strconv.ParseFloat(string(s), 64)
	return f, err == nil
}

type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	City string `json:"city"`
}

type rawTeam struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	City string `json:"city"`
}

func (t rawTeam) team() Team {
	out := Team{ID: t.ID, Name: t.Name, Code: t.Code, City: t.City}
	if out.Code == "" {
		out.Code = "N/A"
	}
	if out.City == "" {
		out.City = "N/A"
	}
	return out
}

type rawTeamStats struct {
	Games     int  `json:"games"`
	Points    stat `json:"points"`
	FGM       stat `json:"fgm"`
	FGP       stat `json:"fgp"`
	FTP       stat `json:"ftp"`
	TPP       stat `json:"tpp"`
	TotReb    stat `json:"totReb"`
	Assists   stat `json:"assists"`
	Steals    stat `json:"steals"`
	Turnovers stat `json:"turnovers"`
}

// TeamStats are season totals converted to per-game averages. Nil means the
// upstream did not report the figure.
type TeamStats struct {
	TeamID                int      `json:"team_id"`
	Season                int      `json:"season"`
	GamesPlayed           int      `json:"games_played"`
	PointsPerGame         *float64 `json:"points_per_game"`
	FieldGoalsMadePerGame *float64 `json:"field_goals_made_per_game"`
	FieldGoalPercentage   string   `json:"field_goal_percentage"`
	FreeThrowPercentage   string   `json:"free_throw_percentage"`
	ThreePointPercentage  string   `json:"three_point_percentage"`
	ReboundsPerGame       *float64 `json:"rebounds_per_game"`
	AssistsPerGame        *float64 `json:"assists_per_game"`
	StealsPerGame         *float64 `json:"steals_per_game"`
	TurnoversPerGame      *float64 `json:"turnovers_per_game"`
}

func (r rawTeamStats) perGame(s stat) *float64 {
	total, ok := s.float()
	if !ok || r.Games <= 0 {
		return nil
	}
	avg := round1(total / float64(r.Games))
	return &avg
}

func orNA(s stat) string {
	if s == "" {
		return "N/A"
	}
	return string(s)
}

func (r rawTeamStats) stats(teamID, season int) TeamStats {
	return TeamStats{
		TeamID:                teamID,
		Season:                season,
		GamesPlayed:           r.Games,
		PointsPerGame:         r.perGame(r.Points),
		FieldGoalsMadePerGame: r.perGame(r.FGM),
		FieldGoalPercentage:   orNA(r.FGP),
		FreeThrowPercentage:   orNA(r.FTP),
		ThreePointPercentage:  orNA(r.TPP),
		ReboundsPerGame:       r.perGame(r.TotReb),
		AssistsPerGame:        r.perGame(r.Assists),
		StealsPerGame:         r.perGame(r.Steals),
		TurnoversPerGame:      r.perGame(r.Turnovers),
	}
}

type record struct {
	Total   int `json:"total"`
	LastTen int `json:"lastTen"`
}

// rawStanding covers both the basketball shape (conference rank, win/loss
// records) and the flat position/won/lost shape of the other leagues.
type rawStanding struct {
	Team       rawTeam `json:"team"`
	Position   int     `json:"position"`
	Won        *int    `json:"won"`
	Lost       *int    `json:"lost"`
	Conference *struct {
		Name string `json:"name"`
		Rank int    `json:"rank"`
	} `json:"conference"`
	Win  *record `json:"win"`
	Loss *record `json:"loss"`
}

type Standing struct {
	Rank   int    `json:"rank"`
	Team   string `json:"team"`
	Played int    `json:"played"`
	Won    int    `json:"won"`
	Lost   int    `json:"lost"`
	Form   string `json:"form,omitempty"`
}

func (r rawStanding) standing() Standing {
	s := Standing{Rank: r.Position, Team: r.Team.Name}
	if r.Conference != nil && r.Conference.Rank > 0 {
		s.Rank = r.Conference.Rank
	}
	switch {
	case r.Win != nil && r.Loss != nil:
		s.Won, s.Lost = r.Win.Total, r.Loss.Total
		s.Form = "W" + strconv.Itoa(r.Win.LastTen) + "-L" + strconv.Itoa(r.Loss.LastTen) + " (Last 10)"
	case r.Won != nil && r.Lost != nil:
		s.Won, s.Lost = *r.Won, *r.Lost
	}
	s.Played = s.Won + s.Lost
	return s
}

// rawPlayerGame is one player's box score line.
type rawPlayerGame struct {
	Player struct {
		ID        int    `json:"id"`
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
	} `json:"player"`
	Team struct {
		Name string `json:"name"`
	} `json:"team"`
	Points  stat `json:"points"`
	Min     stat `json:"min"`
	TotReb  stat `json:"totReb"`
	Assists stat `json:"assists"`
}

func (g rawPlayerGame) name() string {
	return strings.TrimSpace(g.Player.Firstname + " " + g.Player.Lastname)
}

// minutes accepts both "34" and "34:12".
func (g rawPlayerGame) minutes() float64 {
	m, sec, found := strings.Cut(string(g.Min), ":")
	mins, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	if found {
		if s, err := strconv.ParseFloat(sec, 64); err == nil {
			mins += s / 60
		}
	}
	return mins
}

// PlayerStats are per-game averages over the games returned.
type PlayerStats struct {
	Name            string  `json:"name"`
	Team            string  `json:"team"`
	Games           int     `json:"games"`
	PointsPerGame   float64 `json:"points_per_game"`
	MinutesPerGame  float64 `json:"minutes_per_game"`
	ReboundsPerGame float64 `json:"rebounds_per_game"`
	AssistsPerGame  float64 `json:"assists_per_game"`
}

type Injury struct {
	Player      string `json:"player"`
	Team        string `json:"team"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
}

type rawInjury struct {
	Player struct {
		Name string `json:"name"`
	} `json:"player"`
	Team struct {
		Name string `json:"name"`
	} `json:"team"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (r rawInjury) injury() Injury {
	desc := r.Description
	if desc == "" {
		desc = "No details"
	}
	return Injury{
		Player:      r.Player.Name,
		Team:        r.Team.Name,
		Status:      r.Status,
		Description: desc,
		Date:        r.Date,
	}
}

// LeagueInfo summarises one league and its current season.
type LeagueInfo struct {
	League   string `json:"league"`
	LeagueID string `json:"league_id"`
	Season   int    `json:"season"`
	Current  bool   `json:"current"`
}

type rawLeague struct {
	League struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"league"`
	Seasons []struct {
		Year    stat `json:"year"`
		Season  stat `json:"season"`
		Current bool `json:"current"`
	} `json:"seasons"`
}

func (r rawLeague) info() LeagueInfo {
	info := LeagueInfo{League: r.League.Name, LeagueID: strconv.Itoa(r.League.ID)}
	for i, s := range r.Seasons {
		if !s.Current && i != len(r.Seasons)-1 {
			continue
		}
		year := s.Year
		if year == "" {
			year = s.Season
		}
		if y, ok := year.float(); ok {
			info.Season = int(y)
		}
		info.Current = s.Current
		if s.Current {
			break
		}
	}
	return info
}

func round1(f float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 1, 64), 64)
	return v
}
