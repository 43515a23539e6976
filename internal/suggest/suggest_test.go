package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPGenerateDecodesCandidates(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt      string      `json:"prompt"`
			Constraints Constraints `json:"constraints"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotPrompt = req.Prompt
		json.NewEncoder(w).Encode([]BlockCandidate{
			{Start: "10:00", Duration: "60min", Activity: "sketch the shed plans", Energy: 3},
		})
	}))
	defer srv.Close()

	g := HTTP{Endpoint: srv.URL}
	got, err := g.Generate(context.Background(), "propose blocks", Constraints{Date: "2026-03-02", MaxTotalMinutes: 120, Count: 3})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got) != 1 || got[0].Activity != "sketch the shed plans" {
		t.Fatalf("candidates: %+v", got)
	}
	if gotPrompt != "propose blocks" {
		t.Fatalf("prompt not forwarded: %q", gotPrompt)
	}
}

func TestHTTPGenerateToleratesFreeFormReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("I would suggest taking a walk around ten."))
	}))
	defer srv.Close()

	g := HTTP{Endpoint: srv.URL}
	got, err := g.Generate(context.Background(), "propose blocks", Constraints{})
	if err != nil {
		t.Fatalf("free-form reply must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
}

func TestHTTPGenerateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := HTTP{Endpoint: srv.URL}
	if _, err := g.Generate(context.Background(), "propose blocks", Constraints{}); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestHTTPGenerateWithoutEndpoint(t *testing.T) {
	if _, err := (HTTP{}).Generate(context.Background(), "p", Constraints{}); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestStaticRespectsCount(t *testing.T) {
	got, err := DefaultStatic().Generate(context.Background(), "p", Constraints{Count: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("count constraint ignored: %d", len(got))
	}
	got, err = DefaultStatic().Generate(context.Background(), "p", Constraints{})
	if err != nil || len(got) != 3 {
		t.Fatalf("unconstrained set: %d %v", len(got), err)
	}
}
