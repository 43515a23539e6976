package daycourtsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Daycourt HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Directive represents the API directive model (partial).
type Directive struct {
	ID                string   `json:"id"`
	Date              string   `json:"date"`
	Period            string   `json:"period"`
	Direction         string   `json:"direction,omitempty"`
	Action            string   `json:"action"`
	State             string   `json:"state"`
	Validated         bool     `json:"validated"`
	PrincipleScore    *float64 `json:"principle_score,omitempty"`
	VerificationScore *float64 `json:"verification_score,omitempty"`
	Wisdom            *string  `json:"wisdom,omitempty"`
}

// TimeBlock is one allocation in a day plan.
type TimeBlock struct {
	ID       string `json:"id"`
	Start    string `json:"start"`
	Duration string `json:"duration"`
	Activity string `json:"activity"`
	Role     string `json:"role,omitempty"`
	Energy   int    `json:"energy"`
	Flexible bool   `json:"flexible"`
}

// DayPlan is the stored plan for a date.
type DayPlan struct {
	Date             string      `json:"date"`
	PrimaryAction    string      `json:"primary_action"`
	Blocks           []TimeBlock `json:"blocks"`
	FreeSpacePercent float64     `json:"free_space_percent"`
	Revision         int64       `json:"revision"`
}

// MinistryVerdict is one ministry's scored response.
type MinistryVerdict struct {
	MinistryID string `json:"ministry_id"`
	Response   struct {
		Score     float64  `json:"score"`
		Category  string   `json:"category"`
		Proposals []string `json:"proposals,omitempty"`
		Warnings  []string `json:"warnings,omitempty"`
	} `json:"response"`
	Error string `json:"error,omitempty"`
}

// Consultation is the cabinet's aggregated answer for a directive.
type Consultation struct {
	Directive *Directive `json:"directive"`
	Cabinet   struct {
		Reports          map[string]MinistryVerdict `json:"reports"`
		Conflicts        []string                   `json:"conflicts,omitempty"`
		ActiveMinistries int                        `json:"active_ministries"`
		GlobalCoherence  float64                    `json:"global_coherence"`
	} `json:"cabinet"`
}

// RefineResult wraps a checkpoint application.
type RefineResult struct {
	Plan         DayPlan `json:"plan"`
	NextCycleDue bool    `json:"next_cycle_due"`
	Closed       bool    `json:"closed"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	Date       string         `json:"date,omitempty"`
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// IssueDirective issues the directive for a date.
func (c *Client) IssueDirective(ctx context.Context, date, direction, action string, validate bool) (Directive, error) {
	body := map[string]any{
		"date":      date,
		"direction": direction,
		"action":    action,
		"validate":  validate,
	}
	var resp Directive
	err := c.do(ctx, http.MethodPost, "v0/directives", body, &resp)
	return resp, err
}

// Directive fetches the directive for a date.
func (c *Client) Directive(ctx context.Context, date string) (Directive, error) {
	var resp Directive
	err := c.do(ctx, http.MethodGet, c.dayPath(date, "directive"), nil, &resp)
	return resp, err
}

// Consult fans the date's directive out to the cabinet.
func (c *Client) Consult(ctx context.Context, date string, open bool) (Consultation, error) {
	endpoint := c.dayPath(date, "consult")
	if open {
		endpoint += "?open=true"
	}
	var resp Consultation
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// Begin moves the directive to executing.
func (c *Client) Begin(ctx context.Context, date string) (Directive, error) {
	var resp Directive
	err := c.do(ctx, http.MethodPost, c.dayPath(date, "begin"), nil, &resp)
	return resp, err
}

// Complete closes the executing directive.
func (c *Client) Complete(ctx context.Context, date, notes string) (Directive, error) {
	var resp Directive
	err := c.do(ctx, http.MethodPost, c.dayPath(date, "complete"), map[string]any{"notes": notes}, &resp)
	return resp, err
}

// Verify records the judicial verification for a date.
func (c *Client) Verify(ctx context.Context, date string, score float64, narrative, wisdom string) (Directive, error) {
	body := map[string]any{
		"score":     score,
		"narrative": narrative,
		"wisdom":    wisdom,
	}
	var resp Directive
	err := c.do(ctx, http.MethodPost, c.dayPath(date, "verify"), body, &resp)
	return resp, err
}

// Cancel abandons the day's directive.
func (c *Client) Cancel(ctx context.Context, date, reason string) (Directive, error) {
	var resp Directive
	err := c.do(ctx, http.MethodPost, c.dayPath(date, "cancel"), map[string]any{"reason": reason}, &resp)
	return resp, err
}

// SynthesizePlan builds and stores the day plan.
func (c *Client) SynthesizePlan(ctx context.Context, date string) (DayPlan, error) {
	var resp DayPlan
	err := c.do(ctx, http.MethodPost, c.dayPath(date, "plan"), nil, &resp)
	return resp, err
}

// Plan fetches the stored plan for a date.
func (c *Client) Plan(ctx context.Context, date string) (DayPlan, error) {
	var resp DayPlan
	err := c.do(ctx, http.MethodGet, c.dayPath(date, "plan"), nil, &resp)
	return resp, err
}

// Refine applies a daily checkpoint to the stored plan.
func (c *Client) Refine(ctx context.Context, date, checkpoint string) (RefineResult, error) {
	var resp RefineResult
	err := c.do(ctx, http.MethodPost, c.dayPath(date, "plan/refine"), map[string]any{"checkpoint": checkpoint}, &resp)
	return resp, err
}

// AddBlock appends a manual block to the stored plan.
func (c *Client) AddBlock(ctx context.Context, date string, block TimeBlock) (DayPlan, error) {
	body := map[string]any{
		"start":    block.Start,
		"duration": block.Duration,
		"activity": block.Activity,
		"energy":   block.Energy,
		"flexible": block.Flexible,
	}
	var resp DayPlan
	err := c.do(ctx, http.MethodPost, c.dayPath(date, "plan/blocks"), body, &resp)
	return resp, err
}

// Events returns recent events, optionally filtered by date.
func (c *Client) Events(ctx context.Context, date string, limit int) ([]Event, error) {
	endpoint := "v0/events"
	params := url.Values{}
	if date != "" {
		params.Set("date", date)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) dayPath(date, p string) string {
	return fmt.Sprintf("v0/days/%s/%s", url.PathEscape(date), strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
