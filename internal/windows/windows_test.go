package windows

import (
	"context"
	"errors"
	"testing"

	"daycourt/internal/config"
)

type failingProvider struct{}

func (failingProvider) ComputeWindows(context.Context, string) (map[string]Window, error) {
	return nil, errors.New("ephemeris offline")
}

func TestStaticServesAllCanonicalWindows(t *testing.T) {
	got, err := Static{}.ComputeWindows(context.Background(), "2026-03-02")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for _, name := range Names {
		w, ok := got[name]
		if !ok {
			t.Fatalf("missing window %s", name)
		}
		if w.Start == "" || w.End == "" {
			t.Fatalf("window %s incomplete: %+v", name, w)
		}
		if w.Start >= w.End {
			t.Fatalf("window %s start %s not before end %s", name, w.Start, w.End)
		}
	}
}

func TestFromConfigPrefersConfiguredTimes(t *testing.T) {
	cfg := config.Default("court-1")
	cfg.Windows["lauds"] = config.Window{Start: "05:45", End: "06:00"}
	got, err := FromConfig(cfg).ComputeWindows(context.Background(), "2026-03-02")
	if err != nil {
		t.Fatal(err)
	}
	if got["lauds"].Start != "05:45" {
		t.Fatalf("configured start ignored: %+v", got["lauds"])
	}
}

func TestFromConfigFallsBackWithoutWindows(t *testing.T) {
	got, err := FromConfig(nil).ComputeWindows(context.Background(), "2026-03-02")
	if err != nil {
		t.Fatal(err)
	}
	if got["compline"].Start != "21:30" {
		t.Fatalf("expected built-in table, got %+v", got["compline"])
	}
}

func TestResolveFallsBackOnProviderFailure(t *testing.T) {
	got := Resolve(context.Background(), failingProvider{}, "2026-03-02", nil)
	for _, name := range Names {
		if _, ok := got[name]; !ok {
			t.Fatalf("fallback table missing %s", name)
		}
	}
}

func TestResolveWithNilProvider(t *testing.T) {
	got := Resolve(context.Background(), nil, "2026-03-02", nil)
	if len(got) != len(Names) {
		t.Fatalf("fallback table size = %d", len(got))
	}
}
