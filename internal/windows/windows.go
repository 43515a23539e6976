// Package windows resolves the five named time windows of a day. The real
// provider is an external astronomical service; this package carries the
// contract plus a static fallback table so the synthesizer never blocks on it.
package windows

import (
	"context"
	"log"

	"daycourt/internal/config"
)

// Window is one named slice of the day.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Provider computes the five canonical windows for a date.
type Provider interface {
	ComputeWindows(ctx context.Context, date string) (map[string]Window, error)
}

// Names are the canonical window names in day order.
var Names = config.CanonicalWindows

// defaultTable is the static fallback used when no provider is configured or
// the provider fails.
var defaultTable = map[string]Window{
	"lauds":    {Start: "06:30", End: "06:45"},
	"terce":    {Start: "09:00", End: "09:15"},
	"sext":     {Start: "12:00", End: "12:15"},
	"vespers":  {Start: "18:00", End: "18:15"},
	"compline": {Start: "21:30", End: "21:45"},
}

// Static serves windows from a fixed table, ignoring the date.
type Static struct {
	Table map[string]Window
}

// FromConfig builds a static provider from configured windows, falling back
// to the built-in table when none are set.
func FromConfig(cfg *config.Config) Static {
	if cfg == nil || len(cfg.Windows) == 0 {
		return Static{Table: defaultTable}
	}
	table := make(map[string]Window, len(cfg.Windows))
	for name, w := range cfg.Windows {
		table[name] = Window{Start: w.Start, End: w.End}
	}
	return Static{Table: table}
}

func (s Static) ComputeWindows(_ context.Context, _ string) (map[string]Window, error) {
	if len(s.Table) == 0 {
		return defaultTable, nil
	}
	return s.Table, nil
}

// Resolve calls the provider and falls back to the static table on error, so
// callers always receive a full window set.
func Resolve(ctx context.Context, p Provider, date string, logger *log.Logger) map[string]Window {
	if logger == nil {
		logger = log.Default()
	}
	if p == nil {
		return defaultTable
	}
	got, err := p.ComputeWindows(ctx, date)
	if err != nil {
		logger.Printf("window provider failed for %s, using static table: %v", date, err)
		return defaultTable
	}
	for _, name := range Names {
		if _, ok := got[name]; !ok {
			logger.Printf("window provider returned incomplete set for %s, using static table", date)
			return defaultTable
		}
	}
	return got
}
