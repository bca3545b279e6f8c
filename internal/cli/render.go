// Package cli renders agent responses for a terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"oddsy/internal/response"
	"oddsy/internal/tools/odds"
)

// ANSI Color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
)

// Renderer writes responses as human-readable text or raw JSON.
type Renderer struct {
	writer    io.Writer
	colorMode bool
}

func NewRenderer(w io.Writer) *Renderer {
	if w == nil {
		w = os.Stdout
	}
	return &Renderer{writer: w, colorMode: true}
}

func (r *Renderer) SetColorMode(enabled bool) {
	r.colorMode = enabled
}

// JSON writes resp exactly as the HTTP API would return it.
func (r *Renderer) JSON(resp response.Response) error {
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// Render writes resp for a person to read.
func (r *Renderer) Render(resp response.Response) {
	switch resp.Type {
	case response.TypeFinal:
		r.renderFinal(resp)
	case response.TypeAnswer:
		for _, step := range resp.Steps {
			r.colored("  • "+step+"\n", ColorGray)
		}
		if len(resp.Steps) > 0 {
			fmt.Fprintln(r.writer)
		}
		fmt.Fprintln(r.writer, resp.Content)
	case response.TypeExhausted:
		r.colored(resp.Content+"\n", ColorYellow)
	default:
		r.colored("Error: "+resp.Error+"\n", ColorRed)
	}
}

func (r *Renderer) renderFinal(resp response.Response) {
	rec := resp.Data
	if rec == nil {
		r.colored("Error: recommendation is empty\n", ColorRed)
		return
	}

	var game odds.Game
	// The game object is opaque here; a malformed one still prints the pick.
	_ = json.Unmarshal(rec.Game, &game)

	r.colored("🎯 Oddsy's Pick\n", ColorBold+ColorGreen)
	r.colored(strings.Repeat("─", 60)+"\n", ColorGreen)
	if game.AwayTeam != "" || game.HomeTeam != "" {
		line := fmt.Sprintf("%s @ %s", game.AwayTeam, game.HomeTeam)
		if when := kickoff(game.CommenceTime); when != "" {
			line += "  (" + when + ")"
		}
		fmt.Fprintln(r.writer, line)
	}
	fmt.Fprintf(r.writer, "%s moneyline %s at %s\n", rec.Pick.Team, FormatAmerican(rec.Pick.Price), rec.Pick.Bookmaker)
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, rec.Narrative)
	r.colored(strings.Repeat("─", 60)+"\n", ColorGreen)
}

func (r *Renderer) colored(s, color string) {
	if r.colorMode {
		fmt.Fprintf(r.writer, "%s%s%s", color, s, ColorReset)
		return
	}
	fmt.Fprint(r.writer, s)
}

// FormatAmerican prints a price with its sign, e.g. +205 or -110.
func FormatAmerican(price float64) string {
	if price == math.Trunc(price) {
		return fmt.Sprintf("%+d", int64(price))
	}
	return fmt.Sprintf("%+.1f", price)
}

func kickoff(commence string) string {
	t, err := time.Parse(time.RFC3339, commence)
	if err != nil {
		return ""
	}
	return t.UTC().Format("Mon Jan 2 15:04 MST")
}
