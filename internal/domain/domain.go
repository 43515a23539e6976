package domain

// Directive is the single daily unit of work. One directive per calendar day
// may be issued or executing at a time; old directives are superseded, never
// deleted.
type Directive struct {
	ID                string   `json:"id"`
	Date              string   `json:"date" format:"date"`
	Period            string   `json:"period" enum:"ordinary,advent,christmas,lent,easter"`
	Direction         string   `json:"direction,omitempty"`
	Action            string   `json:"action"`
	Validated         bool     `json:"validated"`
	PrincipleScore    *float64 `json:"principle_score,omitempty"`
	State             string   `json:"state" enum:"pending,issued,executing,completed,cancelled"`
	StartedAt         *string  `json:"started_at,omitempty" format:"date-time"`
	CompletedAt       *string  `json:"completed_at,omitempty" format:"date-time"`
	VerificationScore *float64 `json:"verification_score,omitempty"`
	VerificationNotes *string  `json:"verification_notes,omitempty"`
	Wisdom            *string  `json:"wisdom,omitempty"`
	CreatedAt         string   `json:"created_at" format:"date-time"`
	UpdatedAt         string   `json:"updated_at" format:"date-time"`
}

// DirectiveResponse is a single ministry's evaluation of a directive.
type DirectiveResponse struct {
	Score     float64  `json:"score"`
	Category  string   `json:"category" enum:"low,moderate,high,prohibited"`
	Proposals []string `json:"proposals,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// MinistryReport is computed fresh on every consultation and never persisted
// as authoritative state. A non-empty Error marks the entry as degraded.
type MinistryReport struct {
	MinistryID string             `json:"ministry_id"`
	State      map[string]any     `json:"state,omitempty"`
	Response   DirectiveResponse  `json:"response"`
	Health     map[string]float64 `json:"health,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Coordination is the cabinet's cross-ministry suggestion set.
type Coordination struct {
	Type        string   `json:"type" enum:"no_conflicts,arbitration"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// CabinetReport aggregates all ministry reports for one consultation.
type CabinetReport struct {
	Reports          map[string]MinistryReport `json:"reports"`
	Conflicts        []string                  `json:"conflicts,omitempty"`
	Coordination     Coordination              `json:"coordination"`
	ActiveMinistries int                       `json:"active_ministries"`
	GlobalCoherence  float64                   `json:"global_coherence"`
}

// TimeBlock is one allocation in a day plan. Anchored blocks (Flexible false)
// are never moved or resized by the synthesizer; flexible blocks shrink under
// proportional reduction.
type TimeBlock struct {
	ID           string   `json:"id"`
	Start        string   `json:"start"`
	Duration     string   `json:"duration"`
	Activity     string   `json:"activity"`
	Role         string   `json:"role,omitempty"`
	Energy       int      `json:"energy" minimum:"1" maximum:"5"`
	Flexible     bool     `json:"flexible"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// PlanCheckpoint is a static decision prompt embedded in the plan.
type PlanCheckpoint struct {
	Name    string   `json:"name"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
}

// DayPlan is the synthesized schedule for one date. Revision increases on
// every stored mutation; refinement against a stale revision is dropped.
type DayPlan struct {
	Date             string           `json:"date" format:"date"`
	PrimaryAction    string           `json:"primary_action"`
	Blocks           []TimeBlock      `json:"blocks"`
	Checkpoints      []PlanCheckpoint `json:"checkpoints,omitempty"`
	FreeSpacePercent float64          `json:"free_space_percent"`
	NonNegotiables   []string         `json:"non_negotiables,omitempty"`
	Flexible         bool             `json:"flexible"`
	Revision         int64            `json:"revision"`
	UpdatedAt        string           `json:"updated_at" format:"date-time"`
}

// Event is an audit log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	Date       string `json:"date,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Periods are the five fixed day-period tags a directive may carry.
var Periods = []string{"ordinary", "advent", "christmas", "lent", "easter"}

// ValidPeriod reports whether p is one of the five fixed period tags.
func ValidPeriod(p string) bool {
	for _, v := range Periods {
		if v == p {
			return true
		}
	}
	return false
}
