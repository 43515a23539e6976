// Package suggest wraps the external text-generation service that proposes
// emergent time blocks. The service is a black box that may return anything;
// every failure path degrades to an empty candidate list.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// BlockCandidate is one proposed emergent block.
type BlockCandidate struct {
	Start    string `json:"start"`
	Duration string `json:"duration"`
	Activity string `json:"activity"`
	Energy   int    `json:"energy"`
}

// Constraints bound what the generator may propose.
type Constraints struct {
	Date            string `json:"date"`
	MaxTotalMinutes int    `json:"max_total_minutes"`
	Count           int    `json:"count"`
}

// Generator produces emergent block candidates for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, c Constraints) ([]BlockCandidate, error)
}

const defaultTimeout = 4 * time.Second

// HTTP posts the prompt and constraints to a generation endpoint as JSON and
// tolerates non-JSON responses by returning no candidates.
type HTTP struct {
	Endpoint string
	Client   *http.Client
	Timeout  time.Duration
	Logger   *log.Logger
}

func (g HTTP) logger() *log.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return log.Default()
}

func (g HTTP) Generate(ctx context.Context, prompt string, c Constraints) ([]BlockCandidate, error) {
	if g.Endpoint == "" {
		return nil, fmt.Errorf("no generation endpoint configured")
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"prompt":      prompt,
		"constraints": c,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generation endpoint returned %d", resp.StatusCode)
	}

	var candidates []BlockCandidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		// The service is free-form; a non-JSON reply is not an error worth
		// surfacing, just an empty suggestion set.
		g.logger().Printf("generation response was not a candidate list, ignoring: %v", err)
		return nil, nil
	}
	return candidates, nil
}

// Static returns a fixed candidate set trimmed to the constraints. It backs
// offline use and tests.
type Static struct {
	Candidates []BlockCandidate
}

// DefaultStatic proposes a conservative emergent set.
func DefaultStatic() Static {
	return Static{Candidates: []BlockCandidate{
		{Start: "10:00", Duration: "90min", Activity: "advance the primary action", Energy: 4},
		{Start: "15:00", Duration: "60min", Activity: "shallow work and loose ends", Energy: 2},
		{Start: "16:30", Duration: "45min", Activity: "walk and think", Energy: 3},
	}}
}

func (s Static) Generate(_ context.Context, _ string, c Constraints) ([]BlockCandidate, error) {
	out := s.Candidates
	if c.Count > 0 && len(out) > c.Count {
		out = out[:c.Count]
	}
	return out, nil
}
