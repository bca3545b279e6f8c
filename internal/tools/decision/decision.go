// Package decision defines makeFinalRecommendation, the tool whose call ends
// an orchestration run with a structured pick.
package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"oddsy/internal/tool"

	"github.com/google/jsonschema-go/jsonschema"
)

const ToolName = "makeFinalRecommendation"

// MarketMoneyline is the market a pick targets when it names none.
const MarketMoneyline = "h2h"

var ErrMalformed = errors.New("malformed recommendation")

// Pick is the wager the model settled on.
type Pick struct {
	Team      string  `json:"team"`
	Price     float64 `json:"price"`
	Bookmaker string  `json:"bookmaker"`
	Market    string  `json:"market"`
}

// Recommendation is the terminal payload. The typed fields are a read-only
// view; Raw holds the argument object exactly as the model sent it and is
// what gets marshalled, so consumers can check it against the odds feed.
type Recommendation struct {
	Game      json.RawMessage `json:"game"`
	Pick      Pick            `json:"pick"`
	Narrative string          `json:"narrative"`

	Raw json.RawMessage `json:"-"`
}

type recommendationView Recommendation

// MarshalJSON emits Raw when set and the typed fields otherwise.
func (r Recommendation) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(recommendationView(r))
}

// UnmarshalJSON fills the typed view and keeps a copy of data in Raw.
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var v recommendationView
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Recommendation(v)
	r.Raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}

// PickMarket is the pick's market, defaulting to moneyline.
func (r Recommendation) PickMarket() string {
	if m := strings.TrimSpace(r.Pick.Market); m != "" {
		return m
	}
	return MarketMoneyline
}

func str() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} }

// Schema is the argument schema of makeFinalRecommendation.
func Schema() *jsonschema.Schema {
	outcome := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":  str(),
			"price": {Type: "number"},
		},
	}
	market := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"key":         str(),
			"last_update": str(),
			"outcomes":    {Type: "array", Items: outcome},
		},
	}
	bookmaker := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"key":         str(),
			"title":       str(),
			"last_update": str(),
			"markets":     {Type: "array", Items: market},
		},
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"game": {
				Type:        "object",
				Description: "The complete game object from the `listOdds` tool, including all bookmakers. Pass it unmodified.",
				Properties: map[string]*jsonschema.Schema{
					"id":            str(),
					"sport_key":     str(),
					"sport_title":   str(),
					"commence_time": str(),
					"home_team":     str(),
					"away_team":     str(),
					"bookmakers":    {Type: "array", Items: bookmaker},
				},
				Required: []string{"id", "home_team", "away_team"},
			},
			"pick": {
				Type:        "object",
				Description: "The specific pick details.",
				Properties: map[string]*jsonschema.Schema{
					"team":      {Type: "string", Description: "The name of the team picked."},
					"price":     {Type: "number", Description: "The American odds for the picked team."},
					"bookmaker": {Type: "string", Description: `The key of the bookmaker offering the best odds, e.g. "pinnacle".`},
					"market":    {Type: "string", Description: "The market key. Omit it for h2h (moneyline), the market picks are made on."},
				},
				Required: []string{"team", "price", "bookmaker"},
			},
			"narrative": {
				Type:        "string",
				Description: "The detailed rationale for the pick, woven from research and analysis. Plain text, no title or markdown.",
			},
		},
		Required: []string{"game", "pick", "narrative"},
	}
}

var (
	resolveOnce sync.Once
	resolved    *jsonschema.Resolved
	resolveErr  error
)

func validator() (*jsonschema.Resolved, error) {
	resolveOnce.Do(func() {
		resolved, resolveErr = Schema().Resolve(nil)
	})
	return resolved, resolveErr
}

// Parse decodes and validates the terminal tool's argument string. Any
// failure wraps ErrMalformed.
func Parse(raw string) (Recommendation, error) {
	var rec Recommendation

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if args == nil {
		return rec, fmt.Errorf("%w: arguments must be a JSON object", ErrMalformed)
	}

	v, err := validator()
	if err != nil {
		return rec, err
	}
	if err := v.Validate(args); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch {
	case strings.TrimSpace(rec.Pick.Team) == "":
		return rec, fmt.Errorf("%w: pick.team is empty", ErrMalformed)
	case strings.TrimSpace(rec.Pick.Bookmaker) == "":
		return rec, fmt.Errorf("%w: pick.bookmaker is empty", ErrMalformed)
	case strings.TrimSpace(rec.Narrative) == "":
		return rec, fmt.Errorf("%w: narrative is empty", ErrMalformed)
	}
	return rec, nil
}

// Tool returns the terminal tool spec. The orchestrator intercepts calls to
// it; Execute only runs when the tool is invoked outside a run.
func Tool() *tool.ToolSpec {
	return &tool.ToolSpec{
		Name: ToolName,
		Description: "This is the final step. Use this tool to present the final betting pick to the user. " +
			"You MUST provide the full game odds object, the specific pick details, and the narrative rationale.",
		Schema:  Schema(),
		Execute: func(_ context.Context, args map[string]any) tool.Result {
			raw, err := json.Marshal(args)
			if err != nil {
				return tool.FromError(err)
			}
			rec, err := Parse(string(raw))
			if err != nil {
				return tool.FromError(err)
			}
			return tool.Success(rec)
		},
	}
}
