// Package odds exposes The Odds API as model-callable tools.
package odds

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"oddsy/internal/tool"
	"oddsy/internal/upstream"
)

const DefaultBaseURL = "https://api.the-odds-api.com/v4"

// Client calls The Odds API. The key travels as the apiKey query parameter.
type Client struct {
	http    *upstream.Client
	apiKey  string
	baseURL string
	limit   int
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLimit caps list payloads. Non-positive values keep the default.
func WithLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

func New(apiKey string, hc *upstream.Client, opts ...Option) *Client {
	c := &Client{
		http:    hc,
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		limit:   tool.DefaultListLimit,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("apiKey", c.apiKey)

	return c.http.Do(ctx, upstream.Request{
		URL:   c.baseURL + path,
		Query: q,
	}, out)
}

// Sports returns the active sports this client can price.
func (c *Client) Sports(ctx context.Context) ([]Sport, error) {
	var all []Sport
	if err := c.get(ctx, "/sports", nil, &all); err != nil {
		return nil, err
	}

	supported := make(map[string]bool, len(SupportedSports))
	for _, k := range SupportedSports {
		supported[k] = true
	}

	sports := make([]Sport, 0, len(SupportedSports))
	for _, s := range all {
		if s.Active && supported[s.Key] {
			sports = append(sports, s)
		}
	}
	return sports, nil
}

// Odds returns upcoming games with moneyline prices from allowlisted books.
func (c *Client) Odds(ctx context.Context, sportKey string) ([]Game, error) {
	var games []Game
	err := c.get(ctx, "/sports/"+sportKey+"/odds", url.Values{
		"regions":    {"us"},
		"markets":    {"h2h"},
		"oddsFormat": {"american"},
		"dateFormat": {"iso"},
	}, &games)
	if err != nil {
		return nil, err
	}
	return normalizeGames(games), nil
}

// Scores returns live and recently completed games.
func (c *Client) Scores(ctx context.Context, sportKey string, daysFrom int) ([]GameScore, error) {
	var scores []GameScore
	err := c.get(ctx, "/sports/"+sportKey+"/scores", url.Values{
		"daysFrom": {fmt.Sprint(daysFrom)},
	}, &scores)
	return scores, err
}

// Events returns scheduled games, optionally bounded by commence time.
func (c *Client) Events(ctx context.Context, sportKey, from, to string) ([]Event, error) {
	q := url.Values{}
	if from != "" {
		q.Set("commenceTimeFrom", from)
	}
	if to != "" {
		q.Set("commenceTimeTo", to)
	}

	var events []Event
	err := c.get(ctx, "/sports/"+sportKey+"/events", q, &events)
	return events, err
}

// EventOdds returns one event with lines for the requested markets.
func (c *Client) EventOdds(ctx context.Context, sportKey, eventID, markets string) (*Game, error) {
	var game Game
	err := c.get(ctx, "/sports/"+sportKey+"/events/"+url.PathEscape(eventID)+"/odds", url.Values{
		"regions":    {"us"},
		"markets":    {markets},
		"oddsFormat": {"american"},
	}, &game)
	if err != nil {
		return nil, err
	}
	game.Bookmakers = filterBookmakers(game.Bookmakers)
	return &game, nil
}

// HistoricalOdds returns the moneyline snapshot closest to date.
func (c *Client) HistoricalOdds(ctx context.Context, sportKey, date string) (*HistoricalSnapshot, error) {
	var snap HistoricalSnapshot
	err := c.get(ctx, "/historical/sports/"+sportKey+"/odds", url.Values{
		"date":       {date},
		"regions":    {"us"},
		"markets":    {"h2h"},
		"oddsFormat": {"american"},
	}, &snap)
	if err != nil {
		return nil, err
	}
	snap.Data = normalizeGames(snap.Data)
	return &snap, nil
}
