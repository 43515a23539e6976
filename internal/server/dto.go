package server

import (
	"encoding/json"

	"daycourt/internal/config"
	"daycourt/internal/domain"
)

// Request payloads

type IssueDirectiveRequest struct {
	Date      string `json:"date,omitempty" format:"date"`
	Period    string `json:"period,omitempty" enum:"ordinary,advent,christmas,lent,easter"`
	Direction string `json:"direction,omitempty"`
	Action    string `json:"action"`
	Validate  bool   `json:"validate,omitempty"`
}

type CompleteRequest struct {
	Notes string `json:"notes,omitempty"`
}

type VerifyRequest struct {
	Score     float64 `json:"score" minimum:"0" maximum:"100"`
	Narrative string  `json:"narrative,omitempty"`
	Wisdom    string  `json:"wisdom,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type RefineRequest struct {
	Checkpoint string `json:"checkpoint" enum:"morning,midday,afternoon,evening,night"`
}

type AddBlockRequest struct {
	Start    string `json:"start"`
	Duration string `json:"duration,omitempty"`
	Activity string `json:"activity"`
	Energy   int    `json:"energy,omitempty"`
	Flexible bool   `json:"flexible,omitempty"`
}

type CreateAPIKeyRequest struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name,omitempty"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
}

// Response payloads

type DevLoginResponse struct {
	Token string `json:"token"`
}

type RefineResponse struct {
	Plan         domain.DayPlan `json:"plan"`
	NextCycleDue bool           `json:"next_cycle_due"`
	Closed       bool           `json:"closed"`
}

type ConsultationResponse struct {
	Directive *domain.Directive    `json:"directive,omitempty"`
	Cabinet   domain.CabinetReport `json:"cabinet"`
}

type StatusResponse struct {
	CourtID   string            `json:"court_id"`
	Period    string            `json:"period"`
	Date      string            `json:"date" format:"date"`
	Directive *domain.Directive `json:"directive,omitempty"`
	Plan      *PlanSummary      `json:"plan,omitempty"`
	Coherence *float64          `json:"cabinet_coherence,omitempty"`
}

type PlanSummary struct {
	Blocks           int     `json:"blocks"`
	FreeSpacePercent float64 `json:"free_space_percent"`
	Revision         int64   `json:"revision"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	Key       string `json:"key,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	Date       string         `json:"date,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type ConfigResponse struct {
	CourtID        string             `json:"court_id"`
	Period         string             `json:"period"`
	Capacities     config.Capacities  `json:"capacities"`
	Principles     map[string]float64 `json:"principles"`
	NonNegotiables []string           `json:"non_negotiables,omitempty"`
	FreeMinimum    float64            `json:"free_minimum_percent"`
}

type WhoAmIResponse struct {
	ActorID string `json:"actor_id"`
	Source  string `json:"source"`
}

func eventResponse(e domain.Event) EventResponse {
	var payload map[string]any
	if e.Payload != "" {
		_ = json.Unmarshal([]byte(e.Payload), &payload)
	}
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		Date:       e.Date,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    payload,
	}
}

func configResponse(cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		CourtID:        cfg.Court.ID,
		Period:         cfg.PeriodOrDefault(),
		Capacities:     cfg.Capacities,
		Principles:     cfg.Principles.Catalog,
		NonNegotiables: cfg.Structure.NonNegotiables,
		FreeMinimum:    cfg.FreeMinimum(),
	}
}

func apiKeyResponse(k domain.APIKey, plaintext string) APIKeyResponse {
	return APIKeyResponse{
		ID:        k.ID,
		ActorID:   k.ActorID,
		Name:      k.Name,
		Key:       plaintext,
		CreatedAt: k.CreatedAt,
	}
}
