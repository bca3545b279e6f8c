package sports

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"oddsy/internal/tool"
	"oddsy/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "sports-secret-key"

var fixedNow = time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, testKey, r.Header.Get("x-apisports-key"))
		assert.Empty(t, r.URL.Query().Get("apiKey"))
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	hc := upstream.New(
		upstream.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
		upstream.WithSecret(testKey),
	)
	opts = append([]Option{WithBaseURL(srv.URL), WithClock(func() time.Time { return fixedNow })}, opts...)
	c := New(testKey, hc, opts...)
	return c, &hits
}

func call(t *testing.T, c *Client, name, args string) tool.Result {
	t.Helper()
	reg := tool.NewRegistry()
	reg.MustRegister(c.Tools()...)
	spec, err := reg.Get(name)
	require.NoError(t, err)
	return spec.Call(context.Background(), args)
}

func TestNormalizeLeague(t *testing.T) {
	tests := map[string]string{
		"basketball_nba":       LeagueNBA,
		"Basketball":           LeagueNBA,
		"nba":                  LeagueNBA,
		"americanfootball_nfl": LeagueNFL,
		"football":             LeagueNFL,
		"baseball_mlb":         LeagueMLB,
		" MLB ":                LeagueMLB,
	}
	for in, want := range tests {
		got, err := NormalizeLeague(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeLeague("icehockey_nhl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported sport: icehockey_nhl. Supported sports are: nba, nfl, mlb")
}

func TestCurrentSeason(t *testing.T) {
	assert.Equal(t, 2024, CurrentSeason(time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2025, CurrentSeason(time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2024, CurrentSeason(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)))
}

func TestGetTeams(t *testing.T) {
	t.Run("league list", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/teams", r.URL.Path)
			assert.Equal(t, "standard", r.URL.Query().Get("league"))
			_, _ = io.WriteString(w, `{"results":2,"response":[
				{"id":17,"name":"Los Angeles Lakers","code":"LAL","city":"Los Angeles"},
				{"id":2,"name":"Boston Celtics"}
			]}`)
		})

		res := call(t, c, GetTeamsTool, `{"sport":"basketball_nba"}`)
		require.True(t, res.OK, res.Error)
		page := res.Data.(tool.Page[Team])
		require.Len(t, page.Items, 2)
		assert.Equal(t, Team{ID: 17, Name: "Los Angeles Lakers", Code: "LAL", City: "Los Angeles"}, page.Items[0])
		assert.Equal(t, "N/A", page.Items[1].Code)
	})

	t.Run("search", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Lakers", r.URL.Query().Get("search"))
			assert.Empty(t, r.URL.Query().Get("league"))
			_, _ = io.WriteString(w, `{"results":0,"response":[]}`)
		})

		res := call(t, c, GetTeamsTool, `{"sport":"nba","search":"Lakers"}`)
		assert.False(t, res.OK)
		assert.Equal(t, `no teams found for NBA for team "Lakers"`, res.Error)
	})

	t.Run("nfl adds season", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("league"))
			assert.Equal(t, "2024", r.URL.Query().Get("season"))
			_, _ = io.WriteString(w, `{"response":[{"id":1,"name":"Chiefs"}]}`)
		})
		res := call(t, c, GetTeamsTool, `{"sport":"nfl"}`)
		require.True(t, res.OK, res.Error)
	})
}

func TestGetTeamStats(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teams/statistics", r.URL.Path)
		assert.Equal(t, "17", r.URL.Query().Get("id"))
		assert.Equal(t, "2024", r.URL.Query().Get("season"))
		_, _ = io.WriteString(w, `{"response":[{"games":10,"points":1150,"fgm":420,"fgp":"48.1",
			"ftp":"77.0","tpp":"36.4","totReb":445,"assists":270,"steals":81,"turnovers":139}]}`)
	})

	res := call(t, c, GetTeamStatsTool, `{"sport":"nba","teamId":17}`)
	require.True(t, res.OK, res.Error)

	stats := res.Data.(*TeamStats)
	assert.Equal(t, 10, stats.GamesPlayed)
	assert.Equal(t, 115.0, *stats.PointsPerGame)
	assert.Equal(t, 44.5, *stats.ReboundsPerGame)
	assert.Equal(t, 13.9, *stats.TurnoversPerGame)
	assert.Equal(t, "48.1", stats.FieldGoalPercentage)
}

func TestGetTeamStats_Empty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":[]}`)
	})

	res := call(t, c, GetTeamStatsTool, `{"sport":"nba","teamId":99}`)
	assert.False(t, res.OK)
	assert.Equal(t, "no statistics found for team ID 99", res.Error)
}

func TestGetStandings(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/standings", r.URL.Path)
		assert.Equal(t, "standard", r.URL.Query().Get("league"))
		_, _ = io.WriteString(w, `{"response":[
			{"team":{"name":"Boston Celtics"},"conference":{"name":"east","rank":1},"win":{"total":40,"lastTen":8},"loss":{"total":12,"lastTen":2}},
			{"team":{"name":"Los Angeles Lakers"},"conference":{"name":"west","rank":5},"win":{"total":30,"lastTen":6},"loss":{"total":22,"lastTen":4}}
		]}`)
	})

	res := call(t, c, GetStandingsTool, `{"sport":"nba","team":"lakers"}`)
	require.True(t, res.OK, res.Error)
	page := res.Data.(tool.Page[Standing])
	require.Len(t, page.Items, 1)
	assert.Equal(t, Standing{Rank: 5, Team: "Los Angeles Lakers", Played: 52, Won: 30, Lost: 22, Form: "W6-L4 (Last 10)"}, page.Items[0])
}

func TestGetStandings_FlatShape(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":[{"position":2,"team":{"name":"Chiefs"},"won":11,"lost":3}]}`)
	})

	res := call(t, c, GetStandingsTool, `{"sport":"nfl"}`)
	require.True(t, res.OK, res.Error)
	page := res.Data.(tool.Page[Standing])
	assert.Equal(t, Standing{Rank: 2, Team: "Chiefs", Played: 14, Won: 11, Lost: 3}, page.Items[0])
}

func TestGetPlayerStats_Leaders(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players/statistics", r.URL.Path)
		assert.Equal(t, "standard", r.URL.Query().Get("league"))
		_, _ = io.WriteString(w, `{"response":[
			{"player":{"id":1,"firstname":"A","lastname":"One"},"team":{"name":"X"},"points":10,"min":"30:30"},
			{"player":{"id":2,"firstname":"B","lastname":"Two"},"team":{"name":"Y"},"points":30,"min":"36"},
			{"player":{"id":1,"firstname":"A","lastname":"One"},"team":{"name":"X"},"points":20,"min":"29:30"},
			{"player":{"id":3,"firstname":"C","lastname":"Three"},"points":"5"},
			{"player":{"id":4,"firstname":"D","lastname":"Four"},"points":6},
			{"player":{"id":5,"firstname":"E","lastname":"Five"},"points":7},
			{"player":{"id":6,"firstname":"F","lastname":"Six"},"points":8}
		]}`)
	})

	res := call(t, c, GetPlayerStatsTool, `{"sport":"nba"}`)
	require.True(t, res.OK, res.Error)
	page := res.Data.(tool.Page[PlayerStats])
	assert.True(t, page.Truncated)
	assert.Equal(t, 6, page.Total)
	require.Len(t, page.Items, 5)
	assert.Equal(t, "B Two", page.Items[0].Name)
	assert.Equal(t, "A One", page.Items[1].Name)
	assert.Equal(t, 2, page.Items[1].Games)
	assert.Equal(t, 15.0, page.Items[1].PointsPerGame)
	assert.Equal(t, 30.0, page.Items[1].MinutesPerGame)
}

func TestGetPlayerStats_LeadersUseListLimit(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":[
			{"player":{"id":1,"firstname":"A","lastname":"One"},"points":10},
			{"player":{"id":2,"firstname":"B","lastname":"Two"},"points":30},
			{"player":{"id":3,"firstname":"C","lastname":"Three"},"points":20}
		]}`)
	}, WithLimit(2))

	res := call(t, c, GetPlayerStatsTool, `{"sport":"nba"}`)
	require.True(t, res.OK, res.Error)
	page := res.Data.(tool.Page[PlayerStats])
	assert.True(t, page.Truncated)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "B Two", page.Items[0].Name)
	assert.Equal(t, "C Three", page.Items[1].Name)
}

func TestGetPlayerStats_ByName(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/players":
			assert.Equal(t, "James", r.URL.Query().Get("search"))
			_, _ = io.WriteString(w, `{"response":[
				{"id":100,"firstname":"Bronny","lastname":"James"},
				{"id":265,"firstname":"LeBron","lastname":"James"}
			]}`)
		case "/players/statistics":
			assert.Equal(t, "265", r.URL.Query().Get("id"))
			_, _ = io.WriteString(w, `{"response":[
				{"player":{"id":265,"firstname":"LeBron","lastname":"James"},"team":{"name":"Lakers"},"points":28,"totReb":8,"assists":9}
			]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	res := call(t, c, GetPlayerStatsTool, `{"sport":"nba","player":"LeBron James"}`)
	require.True(t, res.OK, res.Error)
	stats := res.Data.(PlayerStats)
	assert.Equal(t, "LeBron James", stats.Name)
	assert.Equal(t, 28.0, stats.PointsPerGame)
	assert.Equal(t, int32(2), hits.Load())
}

func TestGetInjuryReport(t *testing.T) {
	t.Run("nba unsupported", func(t *testing.T) {
		c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		res := call(t, c, GetInjuryReportTool, `{"sport":"basketball_nba"}`)
		assert.False(t, res.OK)
		assert.Contains(t, res.Error, "does not support NBA injuries")
		assert.Zero(t, hits.Load())
	})

	t.Run("team", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/injuries", r.URL.Path)
			assert.Equal(t, "1", r.URL.Query().Get("league"))
			assert.Equal(t, "12", r.URL.Query().Get("team"))
			_, _ = io.WriteString(w, `{"response":[
				{"player":{"name":"P. Mahomes"},"team":{"name":"Chiefs"},"status":"Questionable","description":"Ankle"},
				{"player":{"name":"T. Kelce"},"team":{"name":"Chiefs"},"status":"Out"}
			]}`)
		})
		res := call(t, c, GetInjuryReportTool, `{"sport":"nfl","teamId":12}`)
		require.True(t, res.OK, res.Error)
		page := res.Data.(tool.Page[Injury])
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Ankle", page.Items[0].Description)
		assert.Equal(t, "No details", page.Items[1].Description)
	})

	t.Run("none", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"response":[]}`)
		})
		res := call(t, c, GetInjuryReportTool, `{"sport":"mlb"}`)
		require.True(t, res.OK)
		assert.Equal(t, "No injuries reported in the league.", res.Data)
	})
}

func TestGetLeagueMetadata(t *testing.T) {
	t.Run("nba", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/seasons", r.URL.Path)
			_, _ = io.WriteString(w, `{"response":[2022,2023,2024]}`)
		})
		res := call(t, c, GetLeagueMetadataTool, `{"sport":"nba"}`)
		require.True(t, res.OK, res.Error)
		page := res.Data.(tool.Page[LeagueInfo])
		assert.Equal(t, LeagueInfo{League: "NBA", LeagueID: "standard", Season: 2024, Current: true}, page.Items[0])
	})

	t.Run("mlb", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/leagues", r.URL.Path)
			_, _ = io.WriteString(w, `{"response":[{"league":{"id":1,"name":"MLB"},"seasons":[
				{"season":2023,"current":false},{"season":2024,"current":true}
			]}]}`)
		})
		res := call(t, c, GetLeagueMetadataTool, `{"sport":"baseball"}`)
		require.True(t, res.OK, res.Error)
		page := res.Data.(tool.Page[LeagueInfo])
		assert.Equal(t, LeagueInfo{League: "MLB", LeagueID: "1", Season: 2024, Current: true}, page.Items[0])
	})
}

func TestEmbeddedErrorsAreRetriedAndReported(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"errors":{"token":"Error/Missing application key."},"response":[]}`)
	})

	res := call(t, c, GetStandingsTool, `{"sport":"nba"}`)
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "Missing application key")
	assert.Equal(t, int32(3), hits.Load())
}

func TestInvalidSportMakesNoRequest(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	for _, name := range []string{GetTeamsTool, GetStandingsTool, GetPlayerStatsTool, GetLeagueMetadataTool} {
		res := call(t, c, name, `{"sport":"cricket"}`)
		assert.False(t, res.OK, name)
		assert.Contains(t, res.Error, "Unsupported sport: cricket", name)
	}
	res := call(t, c, GetTeamStatsTool, `{"sport":"nba","teamId":0}`)
	assert.False(t, res.OK)
	assert.Zero(t, hits.Load())
}
