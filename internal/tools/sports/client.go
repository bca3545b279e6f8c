// Package sports exposes API-Sports team, standings, player and injury data
// as model-callable tools for the NBA, NFL and MLB.
package sports

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"oddsy/internal/tool"
	"oddsy/internal/upstream"
)

// Client calls the per-sport API-Sports hosts. The key travels in the
// x-apisports-key header.
type Client struct {
	http    *upstream.Client
	apiKey  string
	baseURL func(host string) string
	limit   int
	now     func() time.Time
}

type Option func(*Client)

// WithBaseURL routes every league to u instead of its api-sports.io host.
func WithBaseURL(u string) Option {
	u = strings.TrimRight(u, "/")
	return func(c *Client) {
		c.baseURL = func(string) string { return u }
	}
}

func WithLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithClock fixes the time used to pick the current season.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(apiKey string, hc *upstream.Client, opts ...Option) *Client {
	c := &Client{
		http:   hc,
		apiKey: apiKey,
		baseURL: func(host string) string {
			return "https://v2." + host + ".api-sports.io"
		},
		limit: tool.DefaultListLimit,
		now:   time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) season() int {
	return CurrentSeason(c.now())
}

func (c *Client) get(ctx context.Context, league, path string, q url.Values, out any) error {
	return c.http.Do(ctx, upstream.Request{
		URL:    c.baseURL(leagueHosts[league]) + path,
		Query:  q,
		Header: http.Header{"x-apisports-key": {c.apiKey}},
	}, out)
}

// Teams lists the league's teams, or those matching search.
func (c *Client) Teams(ctx context.Context, league, search string) ([]Team, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	} else {
		q.Set("league", leagueIDs[league])
		if league != LeagueNBA {
			q.Set("season", strconv.Itoa(c.season()))
		}
	}

	var env envelope[[]rawTeam]
	if err := c.get(ctx, league, "/teams", q, &env); err != nil {
		return nil, err
	}
	teams := make([]Team, 0, len(env.Response))
	for _, t := range env.Response {
		teams = append(teams, t.team())
	}
	return teams, nil
}

// TeamStats returns the team's per-game averages for the current season, or
// nil when the upstream has none.
func (c *Client) TeamStats(ctx context.Context, league string, teamID int) (*TeamStats, error) {
	season := c.season()
	var env envelope[[]rawTeamStats]
	err := c.get(ctx, league, "/teams/statistics", url.Values{
		"id":     {strconv.Itoa(teamID)},
		"season": {strconv.Itoa(season)},
	}, &env)
	if err != nil {
		return nil, err
	}
	if len(env.Response) == 0 {
		return nil, nil
	}
	stats := env.Response[0].stats(teamID, season)
	return &stats, nil
}

// Standings returns the current table in upstream order.
func (c *Client) Standings(ctx context.Context, league string) ([]Standing, error) {
	var env envelope[[]rawStanding]
	err := c.get(ctx, league, "/standings", url.Values{
		"league": {leagueIDs[league]},
		"season": {strconv.Itoa(c.season())},
	}, &env)
	if err != nil {
		return nil, err
	}
	out := make([]Standing, 0, len(env.Response))
	for _, r := range env.Response {
		out = append(out, r.standing())
	}
	return out, nil
}

// PlayerStats returns per-game averages. With an empty player it returns the
// league's scorers ordered by points per game; otherwise the lines of the
// best name match.
func (c *Client) PlayerStats(ctx context.Context, league, player string) ([]PlayerStats, error) {
	q := url.Values{
		"season": {strconv.Itoa(c.season())},
	}
	if player == "" {
		q.Set("league", leagueIDs[league])
	} else {
		id, err := c.findPlayer(ctx, league, player)
		if err != nil || id == 0 {
			return nil, err
		}
		q.Set("id", strconv.Itoa(id))
	}

	var env envelope[[]rawPlayerGame]
	if err := c.get(ctx, league, "/players/statistics", q, &env); err != nil {
		return nil, err
	}
	return aggregatePlayers(env.Response), nil
}

func (c *Client) findPlayer(ctx context.Context, league, name string) (int, error) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return 0, nil
	}

	var env envelope[[]struct {
		ID        int    `json:"id"`
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
	}]
	err := c.get(ctx, league, "/players", url.Values{"search": {fields[len(fields)-1]}}, &env)
	if err != nil || len(env.Response) == 0 {
		return 0, err
	}
	for _, p := range env.Response {
		if strings.EqualFold(strings.TrimSpace(p.Firstname+" "+p.Lastname), strings.Join(fields, " ")) {
			return p.ID, nil
		}
	}
	return env.Response[0].ID, nil
}

func aggregatePlayers(games []rawPlayerGame) []PlayerStats {
	type totals struct {
		stats                 PlayerStats
		pts, min, reb, assist float64
	}
	byPlayer := make(map[int]*totals)
	var order []int
	for _, g := range games {
		t, ok := byPlayer[g.Player.ID]
		if !ok {
			t = &totals{stats: PlayerStats{Name: g.name(), Team: g.Team.Name}}
			byPlayer[g.Player.ID] = t
			order = append(order, g.Player.ID)
		}
		t.stats.Games++
		pts, _ := g.Points.float()
		reb, _ := g.TotReb.float()
		ast, _ := g.Assists.float()
		t.pts += pts
		t.reb += reb
		t.assist += ast
		t.min += g.minutes()
	}

	out := make([]PlayerStats, 0, len(order))
	for _, id := range order {
		t := byPlayer[id]
		n := float64(t.stats.Games)
		t.stats.PointsPerGame = round1(t.pts / n)
		t.stats.MinutesPerGame = round1(t.min / n)
		t.stats.ReboundsPerGame = round1(t.reb / n)
		t.stats.AssistsPerGame = round1(t.assist / n)
		out = append(out, t.stats)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PointsPerGame > out[j].PointsPerGame
	})
	return out
}

// Injuries returns the injury list for the league, or one team when teamID
// is non-zero.
func (c *Client) Injuries(ctx context.Context, league string, teamID int) ([]Injury, error) {
	q := url.Values{"league": {leagueIDs[league]}}
	if teamID != 0 {
		q.Set("team", strconv.Itoa(teamID))
	}

	var env envelope[[]rawInjury]
	if err := c.get(ctx, league, "/injuries", q, &env); err != nil {
		return nil, err
	}
	out := make([]Injury, 0, len(env.Response))
	for _, r := range env.Response {
		out = append(out, r.injury())
	}
	return out, nil
}

// Leagues describes the league and its current season. Basketball has a
// single league, so only its season list is checked.
func (c *Client) Leagues(ctx context.Context, league string) ([]LeagueInfo, error) {
	if league == LeagueNBA {
		var env envelope[[]int]
		if err := c.get(ctx, league, "/seasons", nil, &env); err != nil {
			return nil, err
		}
		season := c.season()
		info := LeagueInfo{League: "NBA", LeagueID: leagueIDs[league], Season: season}
		for _, s := range env.Response {
			if s == season {
				info.Current = true
			}
		}
		return []LeagueInfo{info}, nil
	}

	var env envelope[[]rawLeague]
	if err := c.get(ctx, league, "/leagues", nil, &env); err != nil {
		return nil, err
	}
	out := make([]LeagueInfo, 0, len(env.Response))
	for _, l := range env.Response {
		out = append(out, l.info())
	}
	return out, nil
}
