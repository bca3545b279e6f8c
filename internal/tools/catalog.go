// Package tools assembles the tool registry from the credentials at hand.
package tools

import (
	"net/http"

	"oddsy/internal/config"
	"oddsy/internal/logger"
	"oddsy/internal/tool"
	"oddsy/internal/tools/calc"
	"oddsy/internal/tools/decision"
	"oddsy/internal/tools/odds"
	"oddsy/internal/tools/search"
	"oddsy/internal/tools/sports"
	"oddsy/internal/upstream"
)

// Options tunes the tool families. Zero values mean defaults.
type Options struct {
	Upstream  upstream.Config
	ListLimit int

	HTTPClient *http.Client
	Sleep      upstream.SleepFunc

	OddsBaseURL    string
	SportsBaseURL  string
	SearchEndpoint string
}

// Build returns a registry holding every tool the credentials allow. A
// family whose key is missing is left out. Build performs no network I/O.
func Build(creds config.Credentials, opts Options, log *logger.Logger) *tool.Registry {
	if log == nil {
		log = logger.Discard()
	}
	reg := tool.NewRegistry()

	if creds.OddsKey != "" {
		var o []odds.Option
		if opts.OddsBaseURL != "" {
			o = append(o, odds.WithBaseURL(opts.OddsBaseURL))
		}
		o = append(o, odds.WithLimit(opts.ListLimit))
		reg.MustRegister(odds.New(creds.OddsKey, httpClient(opts, log, creds.OddsKey), o...).Tools()...)
	} else {
		log.Debug("ODDS_API_KEY not set; odds tools unavailable")
	}

	if creds.SportsKey != "" {
		var o []sports.Option
		if opts.SportsBaseURL != "" {
			o = append(o, sports.WithBaseURL(opts.SportsBaseURL))
		}
		o = append(o, sports.WithLimit(opts.ListLimit))
		reg.MustRegister(sports.New(creds.SportsKey, httpClient(opts, log, creds.SportsKey), o...).Tools()...)
	} else {
		log.Debug("SPORTS_API_KEY not set; sports statistics tools unavailable")
	}

	if creds.TavilyKey != "" {
		var o []search.Option
		if opts.SearchEndpoint != "" {
			o = append(o, search.WithEndpoint(opts.SearchEndpoint))
		}
		reg.MustRegister(search.New(creds.TavilyKey, httpClient(opts, log, creds.TavilyKey), o...).Tool())
	} else {
		log.Debug("TAVILY_API_KEY not set; search unavailable")
	}

	reg.MustRegister(calc.Tool(), decision.Tool())

	log.Debug("registered %d tools: %v", reg.Len(), reg.Names())
	return reg
}

// Missing names the environment variables whose absence disables a tool
// family.
func Missing(creds config.Credentials) []string {
	var out []string
	if creds.OddsKey == "" {
		out = append(out, "ODDS_API_KEY")
	}
	if creds.SportsKey == "" {
		out = append(out, "SPORTS_API_KEY")
	}
	if creds.TavilyKey == "" {
		out = append(out, "TAVILY_API_KEY")
	}
	return out
}

func httpClient(opts Options, log *logger.Logger, secret string) *upstream.Client {
	o := []upstream.Option{
		upstream.WithConfig(opts.Upstream),
		upstream.WithLogger(log),
		upstream.WithSecret(secret),
	}
	if opts.HTTPClient != nil {
		o = append(o, upstream.WithHTTPClient(opts.HTTPClient))
	}
	if opts.Sleep != nil {
		o = append(o, upstream.WithSleep(opts.Sleep))
	}
	return upstream.New(o...)
}
