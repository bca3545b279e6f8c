package odds

import (
	"context"
	"strings"

	"oddsy/internal/tool"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool names exposed to the model.
const (
	ListSportsTool        = "listSports"
	ListOddsTool          = "listOdds"
	GetScoresTool         = "getScores"
	GetEventsTool         = "getEvents"
	GetEventOddsTool      = "getEventOdds"
	GetHistoricalOddsTool = "getHistoricalOdds"
)

func sportProperty() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Description: "The sport key, e.g. `baseball_mlb`. League names such as nba, nfl, mlb, nhl, epl, ufc are accepted. " +
			"Valid keys: " + strings.Join(SupportedSports, ", ") + ".",
	}
}

const isoTimePattern = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`

// Tools returns the Odds API tool family.
func (c *Client) Tools() []*tool.ToolSpec {
	return []*tool.ToolSpec{
		{
			Name:        ListSportsTool,
			Description: "List all available sports and their keys. Use this to find the correct `sport_key` for other tools.",
			Schema:      &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}},
			Execute:     c.listSports,
		},
		{
			Name:        ListOddsTool,
			Description: "List upcoming games and their moneyline odds for a given sport. You must provide a valid `sport_key`.",
			Schema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{"sport": sportProperty()},
				Required:   []string{"sport"},
			},
			Execute: c.listOdds,
		},
		{
			Name:        GetScoresTool,
			Description: "Get live and recent scores for a specific sport.",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"sport": sportProperty(),
					"daysFrom": {
						Type:        "integer",
						Description: "Include games completed up to this many days ago (1-3). Defaults to 1.",
					},
				},
				Required: []string{"sport"},
			},
			Execute: c.getScores,
		},
		{
			Name:        GetEventsTool,
			Description: "Get a list of upcoming events for a specific sport, optionally within a commence time window.",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"sport": sportProperty(),
					"commenceTimeFrom": {
						Type:        "string",
						Description: "ISO 8601 UTC lower bound, e.g. 2025-01-31T00:00:00Z.",
						Pattern:     isoTimePattern,
					},
					"commenceTimeTo": {
						Type:        "string",
						Description: "ISO 8601 UTC upper bound.",
						Pattern:     isoTimePattern,
					},
				},
				Required: []string{"sport"},
			},
			Execute: c.getEvents,
		},
		{
			Name:        GetEventOddsTool,
			Description: "Get detailed odds for a specific event including all available markets.",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"sport":   sportProperty(),
					"eventId": {Type: "string", Description: "The event id from `getEvents` or `listOdds`."},
					"markets": {Type: "string", Description: "Comma separated markets. Defaults to h2h,spreads,totals."},
				},
				Required: []string{"sport", "eventId"},
			},
			Execute: c.getEventOdds,
		},
		{
			Name:        GetHistoricalOddsTool,
			Description: "Get historical moneyline odds for a specific sport at a point in time.",
			Schema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"sport": sportProperty(),
					"date": {
						Type:        "string",
						Description: "ISO 8601 UTC timestamp of the snapshot, e.g. 2024-11-01T12:00:00Z.",
						Pattern:     isoTimePattern,
					},
				},
				Required: []string{"sport", "date"},
			},
			Execute: c.getHistoricalOdds,
		},
	}
}

type sportParams struct {
	Sport string `json:"sport"`
}

type scoresParams struct {
	Sport    string `json:"sport"`
	DaysFrom int    `json:"daysFrom"`
}

type eventsParams struct {
	Sport            string `json:"sport"`
	CommenceTimeFrom string `json:"commenceTimeFrom"`
	CommenceTimeTo   string `json:"commenceTimeTo"`
}

type eventOddsParams struct {
	Sport   string `json:"sport"`
	EventID string `json:"eventId"`
	Markets string `json:"markets"`
}

type historicalParams struct {
	Sport string `json:"sport"`
	Date  string `json:"date"`
}

func (c *Client) listSports(ctx context.Context, _ map[string]any) tool.Result {
	sports, err := c.Sports(ctx)
	if err != nil {
		return tool.FromError(err)
	}
	return tool.Success(sports)
}

func (c *Client) listOdds(ctx context.Context, args map[string]any) tool.Result {
	var p sportParams
	if err := tool.Decode(args, &p); err != nil {
		return tool.FromError(err)
	}
	key, err := NormalizeSport(p.Sport)
	if err != nil {
		return tool.FromError(err)
	}

	games, err := c.Odds(ctx, key)
	if err != nil {
		return tool.FromError(err)
	}
	if len(games) == 0 {
		return tool.Failf("no games found for %s", key)
	}
	return tool.Success(tool.Truncate(games, c.limit))
}

func (c *Client) getScores(ctx context.Context, args map[string]any) tool.Result {
	p := scoresParams{DaysFrom: 1}
	if err := tool.Decode(args, &p); err != nil {
		return tool.FromError(err)
	}
	if p.DaysFrom < 1 || p.DaysFrom > 3 {
		return tool.FromError(tool.Invalid("daysFrom must be between 1 and 3, got %d", p.DaysFrom))
	}
	key, err := NormalizeSport(p.Sport)
	if err != nil {
		return tool.FromError(err)
	}

	scores, err := c.Scores(ctx, key, p.DaysFrom)
	if err != nil {
		return tool.FromError(err)
	}
	return tool.Success(tool.Truncate(scores, c.limit))
}

func (c *Client) getEvents(ctx context.Context, args map[string]any) tool.Result {
	var p eventsParams
	if err := tool.Decode(args, &p); err != nil {
		return tool.FromError(err)
	}
	key, err := NormalizeSport(p.Sport)
	if err != nil {
		return tool.FromError(err)
	}

	events, err := c.Events(ctx, key, p.CommenceTimeFrom, p.CommenceTimeTo)
	if err != nil {
		return tool.FromError(err)
	}
	if len(events) == 0 {
		return tool.Failf("no upcoming events found for %s", key)
	}
	return tool.Success(tool.Truncate(events, c.limit))
}

func (c *Client) getEventOdds(ctx context.Context, args map[string]any) tool.Result {
	p := eventOddsParams{Markets: "h2h,spreads,totals"}
	if err := tool.Decode(args, &p); err != nil {
		return tool.FromError(err)
	}
	if strings.TrimSpace(p.EventID) == "" {
		return tool.FromError(tool.Invalid("eventId cannot be empty"))
	}
	key, err := NormalizeSport(p.Sport)
	if err != nil {
		return tool.FromError(err)
	}

	game, err := c.EventOdds(ctx, key, p.EventID, p.Markets)
	if err != nil {
		return tool.FromError(err)
	}
	return tool.Success(game)
}

func (c *Client) getHistoricalOdds(ctx context.Context, args map[string]any) tool.Result {
	var p historicalParams
	if err := tool.Decode(args, &p); err != nil {
		return tool.FromError(err)
	}
	key, err := NormalizeSport(p.Sport)
	if err != nil {
		return tool.FromError(err)
	}

	snap, err := c.HistoricalOdds(ctx, key, p.Date)
	if err != nil {
		return tool.FromError(err)
	}
	return tool.Success(map[string]any{
		"timestamp": snap.Timestamp,
		"games":     tool.Truncate(snap.Data, c.limit),
	})
}
