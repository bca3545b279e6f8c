// Package calc provides the always-available calculateOdds tool.
package calc

import (
	"context"
	"math"

	"oddsy/internal/tool"

	"github.com/google/jsonschema-go/jsonschema"
)

const ToolName = "calculateOdds"

const defaultStake = 100

// Line is one American price converted to the other common forms.
type Line struct {
	American           float64 `json:"american"`
	Decimal            float64 `json:"decimal"`
	ImpliedProbability float64 `json:"implied_probability"`
	Stake              float64 `json:"stake"`
	Payout             float64 `json:"payout"`
	Profit             float64 `json:"profit"`
}

// Market compares both sides of a two-way line.
type Market struct {
	Line
	Opponent         *Line   `json:"opponent,omitempty"`
	NoVigProbability float64 `json:"no_vig_probability,omitempty"`
	Hold             float64 `json:"hold,omitempty"`
}

// Decimal converts American odds to decimal odds.
func Decimal(american float64) (float64, error) {
	if err := check(american); err != nil {
		return 0, err
	}
	if american > 0 {
		return 1 + american/100, nil
	}
	return 1 + 100/-american, nil
}

// ImpliedProbability is the break-even win probability of an American price,
// in the range (0, 1).
func ImpliedProbability(american float64) (float64, error) {
	if err := check(american); err != nil {
		return 0, err
	}
	if american > 0 {
		return 100 / (american + 100), nil
	}
	return -american / (-american + 100), nil
}

func check(american float64) error {
	if math.IsNaN(american) || math.IsInf(american, 0) || math.Abs(american) < 100 {
		return tool.Invalid("american odds must be <= -100 or >= +100, got %v", american)
	}
	return nil
}

// Price builds a Line for a stake.
func Price(american, stake float64) (Line, error) {
	if stake <= 0 {
		return Line{}, tool.Invalid("stake must be positive, got %v", stake)
	}
	dec, err := Decimal(american)
	if err != nil {
		return Line{}, err
	}
	prob, _ := ImpliedProbability(american)
	return Line{
		American:           american,
		Decimal:            round(dec, 3),
		ImpliedProbability: round(prob*100, 2),
		Stake:              stake,
		Payout:             round(stake*dec, 2),
		Profit:             round(stake*(dec-1), 2),
	}, nil
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

// Tool returns the calculateOdds spec.
func Tool() *tool.ToolSpec {
	return &tool.ToolSpec{
		Name: ToolName,
		Description: "Convert American odds to decimal odds and implied probability, and compute the payout for a stake. " +
			"Pass opponentOdds to also get the no-vig probability and the bookmaker hold.",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"americanOdds": {Type: "number", Description: "American odds, e.g. -150 or +130."},
				"stake":        {Type: "number", Description: "Stake amount. Defaults to 100."},
				"opponentOdds": {Type: "number", Description: "Optional American odds of the other side of the same market."},
			},
			Required: []string{"americanOdds"},
		},
		Execute: execute,
	}
}

type params struct {
	AmericanOdds float64  `json:"americanOdds"`
	Stake        float64  `json:"stake"`
	OpponentOdds *float64 `json:"opponentOdds"`
}

func execute(_ context.Context, args map[string]any) tool.Result {
	p := params{Stake: defaultStake}
	if err := tool.Decode(args, &p); err != nil {
		return tool.FromError(err)
	}

	line, err := Price(p.AmericanOdds, p.Stake)
	if err != nil {
		return tool.FromError(err)
	}
	if p.OpponentOdds == nil {
		return tool.Success(line)
	}

	opp, err := Price(*p.OpponentOdds, p.Stake)
	if err != nil {
		return tool.FromError(err)
	}
	a, _ := ImpliedProbability(p.AmericanOdds)
	b, _ := ImpliedProbability(*p.OpponentOdds)
	return tool.Success(Market{
		Line:             line,
		Opponent:         &opp,
		NoVigProbability: round(a/(a+b)*100, 2),
		Hold:             round((1-1/(a+b))*100, 2),
	})
}
