// Package search wraps the Tavily search API as the tavilySearch tool.
package search

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"oddsy/internal/tool"
	"oddsy/internal/upstream"

	"github.com/google/jsonschema-go/jsonschema"
)

const (
	ToolName = "tavilySearch"

	DefaultEndpoint = "https://api.tavily.com/search"

	maxResults     = 5
	maxContent     = 300
	defaultStartAt = "2024-01-01"
	dateLayout     = "2006-01-02"
)

// DefaultDomains restricts searches to sports news and betting sites.
var DefaultDomains = []string{
	"espn.com",
	"sports.yahoo.com",
	"cbssports.com",
	"nba.com",
	"nfl.com",
	"mlb.com",
	"vegasinsider.com",
	"actionnetwork.com",
	"covers.com",
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type Client struct {
	http     *upstream.Client
	apiKey   string
	endpoint string
	now      func() time.Time
}

type Option func(*Client)

func WithEndpoint(u string) Option {
	return func(c *Client) { c.endpoint = u }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(apiKey string, hc *upstream.Client, opts ...Option) *Client {
	c := &Client{
		http:     hc,
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type request struct {
	Query          string   `json:"query"`
	IncludeAnswer  bool     `json:"include_answer"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type rawResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

type response struct {
	Answer  string      `json:"answer"`
	Results []rawResult `json:"results"`
}

type Result struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Content   string  `json:"content"`
	Score     float64 `json:"score,omitempty"`
	Published string  `json:"published,omitempty"`
}

// Answer is what the model sees: Tavily's summary plus cleaned results.
type Answer struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// Search runs query restricted to domains, or DefaultDomains when empty.
func (c *Client) Search(ctx context.Context, query string, domains []string) (*Answer, error) {
	if len(domains) == 0 {
		domains = DefaultDomains
	}

	var resp response
	err := c.http.Do(ctx, upstream.Request{
		Method: http.MethodPost,
		URL:    c.endpoint,
		Header: http.Header{"Authorization": {"Bearer " + c.apiKey}},
		Body: request{
			Query:          query,
			IncludeAnswer:  true,
			MaxResults:     maxResults,
			SearchDepth:    "basic",
			IncludeDomains: domains,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := &Answer{Query: query, Answer: strings.TrimSpace(resp.Answer), Results: []Result{}}
	for _, r := range resp.Results {
		if r.Title == "" || r.Content == "" {
			continue
		}
		out.Results = append(out.Results, Result{
			Title:     r.Title,
			URL:       r.URL,
			Content:   clean(r.Content),
			Score:     r.Score,
			Published: r.PublishedDate,
		})
	}
	return out, nil
}

// clean collapses whitespace and clips the snippet.
func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxContent {
		cut := maxContent
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// Tool returns the tavilySearch spec.
func (c *Client) Tool() *tool.ToolSpec {
	return &tool.ToolSpec{
		Name:        ToolName,
		Description: "Use Tavily Search API to research news, injuries, and narratives for teams, players, or matchups.",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: `The search query, e.g. "latest injury report for the New York Mets".`,
				},
				"startDate": {Type: "string", Description: "Optional start of the date range, YYYY-MM-DD."},
				"endDate":   {Type: "string", Description: "Optional end of the date range, YYYY-MM-DD."},
				"includeDomains": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Optional domains to search instead of the default sports sites.",
				},
			},
			Required: []string{"query"},
		},
		Execute: c.execute,
	}
}

type params struct {
	Query          string   `json:"query"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	IncludeDomains []string `json:"includeDomains"`
}

func (c *Client) execute(ctx context.Context, args map[string]any) tool.Result {
	var p params
	if err := tool.Decode(args, &p); err != nil {
		return tool.FromError(err)
	}
	query, err := c.buildQuery(p)
	if err != nil {
		return tool.FromError(err)
	}

	answer, err := c.Search(ctx, query, p.IncludeDomains)
	if err != nil {
		return tool.FromError(err)
	}
	if len(answer.Results) == 0 && answer.Answer == "" {
		return tool.Failf("No relevant results found. Try rephrasing your query or removing date restrictions.")
	}
	return tool.Success(answer)
}

// buildQuery validates the inputs and appends the date range hint.
func (c *Client) buildQuery(p params) (string, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return "", tool.Invalid("search query cannot be empty")
	}
	if p.StartDate == "" && p.EndDate == "" {
		return query, nil
	}

	if p.StartDate != "" && !c.validDate(p.StartDate) {
		return "", tool.Invalid("invalid startDate %q. Use YYYY-MM-DD", p.StartDate)
	}
	if p.EndDate != "" && !c.validDate(p.EndDate) {
		return "", tool.Invalid("invalid endDate %q. Use YYYY-MM-DD", p.EndDate)
	}

	start, end := p.StartDate, p.EndDate
	if start == "" {
		start = defaultStartAt
	}
	if end == "" {
		end = c.now().UTC().Format(dateLayout)
	}
	return query + " (date:" + start + ".." + end + ")", nil
}

func (c *Client) validDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return false
	}
	return d.Year() >= 2000 && d.Year() <= c.now().Year()
}
