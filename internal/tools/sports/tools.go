package sports

import (
	"context"
	"strings"

	"oddsy/internal/tool"

	"github.com/google/jsonschema-go/jsonschema"
)

const (
	GetTeamsTool          = "getTeams"
	GetTeamStatsTool      = "getTeamStats"
	GetStandingsTool      = "getStandings"
	GetPlayerStatsTool    = "getPlayerStats"
	GetInjuryReportTool   = "getInjuryReport"
	GetLeagueMetadataTool = "getLeagueMetadata"
)

const nbaInjuriesUnsupported = "This tool does not support NBA injuries. Use the tavilySearch tool to find NBA injury news, " +
	"for example search for 'Lakers injury report'."

func sportProperty() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "The sport, e.g. 'nba', 'nfl', 'mlb'. Odds API keys such as basketball_nba are accepted.",
	}
}

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	props["sport"] = sportProperty()
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"sport"}, required...),
	}
}

// Tools returns the API-Sports tool family.
func (c *Client) Tools() []*tool.ToolSpec {
	return []*tool.ToolSpec{
		{
			Name:        GetTeamsTool,
			Description: "Get teams and their IDs for a sport. Use `search` to find a specific team by name.",
			Schema: object(nil, map[string]*jsonschema.Schema{
				"search": {Type: "string", Description: "Team name to search for, e.g. 'Lakers'."},
			}),
			Execute: c.getTeams,
		},
		{
			Name:        GetTeamStatsTool,
			Description: "Get per-game statistics for a team this season. You MUST have a teamId from `getTeams`.",
			Schema: object([]string{"teamId"}, map[string]*jsonschema.Schema{
				"teamId": {Type: "integer", Description: "The numerical team ID from `getTeams`."},
			}),
			Execute: c.getTeamStats,
		},
		{
			Name:        GetStandingsTool,
			Description: "Get current league standings. Use `team` to narrow the table to matching team names.",
			Schema: object(nil, map[string]*jsonschema.Schema{
				"team": {Type: "string", Description: "Optional team name filter."},
			}),
			Execute: c.getStandings,
		},
		{
			Name:        GetPlayerStatsTool,
			Description: "Get per-game player averages. Omit `player` to get the league's top scorers.",
			Schema: object(nil, map[string]*jsonschema.Schema{
				"player": {Type: "string", Description: "Full player name, e.g. 'LeBron James'."},
			}),
			Execute: c.getPlayerStats,
		},
		{
			Name:        GetInjuryReportTool,
			Description: "Get the injury report for a league or one team. Does not support the NBA; use `tavilySearch` for NBA injuries.",
			Schema: object(nil, map[string]*jsonschema.Schema{
				"teamId": {Type: "integer", Description: "Optional team ID from `getTeams`."},
			}),
			Execute: c.getInjuryReport,
		},
		{
			Name:        GetLeagueMetadataTool,
			Description: "Get league and current season metadata for a sport.",
			Schema:      object(nil, map[string]*jsonschema.Schema{}),
			Execute:     c.getLeagueMetadata,
		},
	}
}

type teamsParams struct {
	Sport  string `json:"sport"`
	Search string `json:"search"`
}

type teamParams struct {
	Sport  string `json:"sport"`
	TeamID int    `json:"teamId"`
}

type standingsParams struct {
	Sport string `json:"sport"`
	Team  string `json:"team"`
}

type playerParams struct {
	Sport  string `json:"sport"`
	Player string `json:"player"`
}

// decode fills p and normalizes the sport it carries.
func decode(args map[string]any, p any, sport func() string) (string, error) {
	if err := tool.Decode(args, p); err != nil {
		return "", err
	}
	return NormalizeLeague(sport())
}

func (c *Client) getTeams(ctx context.Context, args map[string]any) tool.Result {
	var p teamsParams
	league, err := decode(args, &p, func() string { return p.Sport })
	if err != nil {
		return tool.FromError(err)
	}

	search := strings.TrimSpace(p.Search)
	teams, err := c.Teams(ctx, league, search)
	if err != nil {
		return tool.FromError(err)
	}
	if len(teams) == 0 {
		if search != "" {
			return tool.Failf("no teams found for %s for team %q", strings.ToUpper(league), search)
		}
		return tool.Failf("no teams found for %s", strings.ToUpper(league))
	}
	return tool.Success(tool.Truncate(teams, c.limit))
}

func (c *Client) getTeamStats(ctx context.Context, args map[string]any) tool.Result {
	var p teamParams
	league, err := decode(args, &p, func() string { return p.Sport })
	if err != nil {
		return tool.FromError(err)
	}
	if p.TeamID <= 0 {
		return tool.FromError(tool.Invalid("teamId must be a positive team ID from %s", GetTeamsTool))
	}

	stats, err := c.TeamStats(ctx, league, p.TeamID)
	if err != nil {
		return tool.FromError(err)
	}
	if stats == nil {
		return tool.Failf("no statistics found for team ID %d", p.TeamID)
	}
	return tool.Success(stats)
}

func (c *Client) getStandings(ctx context.Context, args map[string]any) tool.Result {
	var p standingsParams
	league, err := decode(args, &p, func() string { return p.Sport })
	if err != nil {
		return tool.FromError(err)
	}

	table, err := c.Standings(ctx, league)
	if err != nil {
		return tool.FromError(err)
	}
	if team := strings.ToLower(strings.TrimSpace(p.Team)); team != "" {
		filtered := table[:0]
		for _, s := range table {
			if strings.Contains(strings.ToLower(s.Team), team) {
				filtered = append(filtered, s)
			}
		}
		table = filtered
	}
	if len(table) == 0 {
		return tool.Failf("no standings data available")
	}
	return tool.Success(tool.Truncate(table, c.limit))
}

func (c *Client) getPlayerStats(ctx context.Context, args map[string]any) tool.Result {
	var p playerParams
	league, err := decode(args, &p, func() string { return p.Sport })
	if err != nil {
		return tool.FromError(err)
	}

	player := strings.TrimSpace(p.Player)
	stats, err := c.PlayerStats(ctx, league, player)
	if err != nil {
		return tool.FromError(err)
	}
	if len(stats) == 0 {
		if player != "" {
			return tool.Failf("no statistics found for player: %s", player)
		}
		return tool.Failf("no player statistics available")
	}
	if player != "" {
		return tool.Success(stats[0])
	}
	return tool.Success(tool.Truncate(stats, c.limit))
}

func (c *Client) getInjuryReport(ctx context.Context, args map[string]any) tool.Result {
	var p teamParams
	league, err := decode(args, &p, func() string { return p.Sport })
	if err != nil {
		return tool.FromError(err)
	}
	if league == LeagueNBA {
		return tool.Failf(nbaInjuriesUnsupported)
	}

	injuries, err := c.Injuries(ctx, league, p.TeamID)
	if err != nil {
		return tool.FromError(err)
	}
	if len(injuries) == 0 {
		if p.TeamID != 0 {
			return tool.Success("No injuries reported for this team.")
		}
		return tool.Success("No injuries reported in the league.")
	}
	return tool.Success(tool.Truncate(injuries, c.limit))
}

func (c *Client) getLeagueMetadata(ctx context.Context, args map[string]any) tool.Result {
	var p teamParams
	league, err := decode(args, &p, func() string { return p.Sport })
	if err != nil {
		return tool.FromError(err)
	}

	leagues, err := c.Leagues(ctx, league)
	if err != nil {
		return tool.FromError(err)
	}
	if len(leagues) == 0 {
		return tool.Failf("no leagues found for %s", strings.ToUpper(league))
	}
	return tool.Success(tool.Truncate(leagues, c.limit))
}
