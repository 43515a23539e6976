// Package cabinet fans a directive out to every registered ministry and
// aggregates the reports into a single deterministic result.
package cabinet

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"daycourt/internal/domain"
)

// Ministry is the closed evaluator contract. Implementations are stateless
// with respect to each other; a consultation reads only the ministry's own
// heuristics and the shared immutable directive.
type Ministry interface {
	ID() string
	CurrentState() map[string]any
	RespondToDirective(d domain.Directive) (domain.MinistryReport, error)
	HealthMetrics() map[string]float64
}

// ConflictRule inspects all reports and returns free-text conflict
// descriptions. Reports arrive keyed and iteration must use sorted ids to
// stay deterministic.
type ConflictRule func(reports map[string]domain.MinistryReport) []string

// Cabinet registers ministries and coordinates consultations.
type Cabinet struct {
	mu         sync.RWMutex
	ministries map[string]Ministry
	rules      []ConflictRule
	Logger     *log.Logger
}

// New returns a cabinet with the default conflict rules installed.
func New() *Cabinet {
	return &Cabinet{
		ministries: make(map[string]Ministry),
		rules:      []ConflictRule{ScoreDivergenceRule, MultipleProhibitedRule},
	}
}

// Register upserts a ministry under id. Registering an existing id replaces it.
func (c *Cabinet) Register(id string, m Ministry) error {
	if id == "" {
		return fmt.Errorf("ministry id required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ministries[id] = m
	return nil
}

// SetConflictRules replaces the conflict detection hook.
func (c *Cabinet) SetConflictRules(rules ...ConflictRule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = rules
}

func (c *Cabinet) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// Consult fans the directive out to all registered ministries concurrently
// and aggregates the reports. A ministry that errors or panics becomes a
// degraded entry and never aborts the consultation. Output is keyed by
// ministry id, so it is deterministic regardless of completion order.
func (c *Cabinet) Consult(ctx context.Context, d domain.Directive) domain.CabinetReport {
	c.mu.RLock()
	ministries := make(map[string]Ministry, len(c.ministries))
	for id, m := range c.ministries {
		ministries[id] = m
	}
	rules := c.rules
	c.mu.RUnlock()

	reports := make(map[string]domain.MinistryReport, len(ministries))
	var wg sync.WaitGroup
	var collect sync.Mutex
	for id, m := range ministries {
		wg.Add(1)
		go func(id string, m Ministry) {
			defer wg.Done()
			report := c.evaluate(ctx, id, m, d)
			collect.Lock()
			reports[id] = report
			collect.Unlock()
		}(id, m)
	}
	wg.Wait()

	var conflicts []string
	for _, rule := range rules {
		conflicts = append(conflicts, rule(reports)...)
	}
	sort.Strings(conflicts)

	coordination := domain.Coordination{Type: "no_conflicts"}
	if len(conflicts) > 0 {
		coordination = domain.Coordination{
			Type:        "arbitration",
			Suggestions: arbitrationSuggestions(reports, conflicts),
		}
	}

	return domain.CabinetReport{
		Reports:          reports,
		Conflicts:        conflicts,
		Coordination:     coordination,
		ActiveMinistries: activeCount(reports),
		GlobalCoherence:  globalCoherence(reports),
	}
}

// evaluate runs one ministry, containing panics as degraded reports.
func (c *Cabinet) evaluate(ctx context.Context, id string, m Ministry, d domain.Directive) (report domain.MinistryReport) {
	defer func() {
		if r := recover(); r != nil {
			c.logger().Printf("ministry %s panicked during consultation: %v", id, r)
			report = domain.MinistryReport{MinistryID: id, Error: fmt.Sprintf("%v", r)}
		}
	}()
	if err := ctx.Err(); err != nil {
		return domain.MinistryReport{MinistryID: id, Error: err.Error()}
	}
	report, err := m.RespondToDirective(d)
	if err != nil {
		c.logger().Printf("ministry %s failed: %v", id, err)
		return domain.MinistryReport{MinistryID: id, Error: err.Error()}
	}
	report.MinistryID = id
	return report
}

// DirectiveScores returns the per-directive evaluation scores keyed by
// ministry id, excluding degraded entries.
func DirectiveScores(r domain.CabinetReport) map[string]float64 {
	out := make(map[string]float64, len(r.Reports))
	for id, rep := range r.Reports {
		if rep.Error != "" {
			continue
		}
		out[id] = rep.Response.Score
	}
	return out
}

func activeCount(reports map[string]domain.MinistryReport) int {
	n := 0
	for _, r := range reports {
		if r.Error == "" {
			n++
		}
	}
	return n
}

// globalCoherence is the mean of each healthy ministry's health-metric
// average. It reflects standing health, not the per-directive scores.
func globalCoherence(reports map[string]domain.MinistryReport) float64 {
	var total float64
	var n int
	for _, r := range reports {
		if r.Error != "" || len(r.Health) == 0 {
			continue
		}
		var sum float64
		for _, v := range r.Health {
			sum += v
		}
		total += sum / float64(len(r.Health))
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// ScoreDivergenceRule flags consultations where two healthy ministries
// disagree by more than 50 points about the same directive.
func ScoreDivergenceRule(reports map[string]domain.MinistryReport) []string {
	type scored struct {
		id    string
		score float64
	}
	var all []scored
	for _, id := range sortedIDs(reports) {
		r := reports[id]
		if r.Error != "" {
			continue
		}
		all = append(all, scored{id, r.Response.Score})
	}
	if len(all) < 2 {
		return nil
	}
	lo, hi := all[0], all[0]
	for _, s := range all[1:] {
		if s.score < lo.score {
			lo = s
		}
		if s.score > hi.score {
			hi = s
		}
	}
	if hi.score-lo.score > 50 {
		return []string{fmt.Sprintf("sharp divergence: %s rates the directive %.0f while %s rates it %.0f", hi.id, hi.score, lo.id, lo.score)}
	}
	return nil
}

// MultipleProhibitedRule flags consultations where two or more ministries put
// the directive in the prohibited tier.
func MultipleProhibitedRule(reports map[string]domain.MinistryReport) []string {
	var prohibited []string
	for _, id := range sortedIDs(reports) {
		r := reports[id]
		if r.Error == "" && r.Response.Category == "prohibited" {
			prohibited = append(prohibited, id)
		}
	}
	if len(prohibited) < 2 {
		return nil
	}
	return []string{fmt.Sprintf("competing capacity claims: ministries %v all rate the directive prohibited", prohibited)}
}

func arbitrationSuggestions(reports map[string]domain.MinistryReport, conflicts []string) []string {
	suggestions := make([]string, 0, len(conflicts)+1)
	suggestions = append(suggestions, "scale the tangible action down until the strictest ministry clears the high tier")
	for _, id := range sortedIDs(reports) {
		r := reports[id]
		if r.Error == "" && r.Response.Category == "prohibited" {
			suggestions = append(suggestions, fmt.Sprintf("defer the portion of the action that presses on %s capacity", id))
		}
	}
	return suggestions
}

func sortedIDs(reports map[string]domain.MinistryReport) []string {
	ids := make([]string, 0, len(reports))
	for id := range reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
