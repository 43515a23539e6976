package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"daycourt/internal/domain"
)

// Config models daycourt.yml.
type Config struct {
	Court struct {
		ID     string `yaml:"id"`
		Period string `yaml:"period"`
	} `yaml:"court"`
	Capacities Capacities `yaml:"capacities"`
	Principles struct {
		Catalog   map[string]float64 `yaml:"catalog"`
		PassScore float64            `yaml:"pass_score"`
	} `yaml:"principles"`
	Structure Structure         `yaml:"structure"`
	Windows   map[string]Window `yaml:"windows"`
	Suggest   struct {
		Endpoint       string `yaml:"endpoint"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"suggest"`
}

// Capacities are the standing resource estimates the ministries score against.
type Capacities struct {
	WeeklyHours      float64 `yaml:"weekly_hours"`
	DailyEnergy      float64 `yaml:"daily_energy"`
	MonthlyBudget    float64 `yaml:"monthly_budget"`
	RunwayMonths     float64 `yaml:"runway_months"`
	FocusHoursPerDay float64 `yaml:"focus_hours_per_day"`
	SocialHoursWeek  float64 `yaml:"social_hours_per_week"`
	OpenProjects     int     `yaml:"open_projects"`
	MaxOpenProjects  int     `yaml:"max_open_projects"`
}

// Structure captures the recurring shape of a day: the primary-action slot,
// routines, non-negotiables and the free-space floor.
type Structure struct {
	PrimaryActionStart    string    `yaml:"primary_action_start"`
	PrimaryActionDuration string    `yaml:"primary_action_duration"`
	Routines              []Routine `yaml:"routines"`
	NonNegotiables        []string  `yaml:"non_negotiables"`
	FreeMinimumPercent    float64   `yaml:"free_minimum_percent"`
}

type Routine struct {
	Name     string `yaml:"name"`
	Time     string `yaml:"time"`
	Duration string `yaml:"duration"`
	Energy   int    `yaml:"energy"`
}

type Window struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// CanonicalWindows are the five named time windows every day carries.
var CanonicalWindows = []string{"lauds", "terce", "sext", "vespers", "compline"}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with dc config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Court.ID == "" {
		return fmt.Errorf("config.court.id is required")
	}
	if c.Court.Period != "" && !domain.ValidPeriod(c.Court.Period) {
		return fmt.Errorf("config.court.period must be one of %v", domain.Periods)
	}
	if c.Structure.FreeMinimumPercent < 0 || c.Structure.FreeMinimumPercent > 100 {
		return fmt.Errorf("config.structure.free_minimum_percent must be within 0..100")
	}
	for _, r := range c.Structure.Routines {
		if r.Name == "" {
			return fmt.Errorf("config.structure.routines contains a routine without a name")
		}
		if r.Time == "" {
			return fmt.Errorf("routine %s has no preferred time", r.Name)
		}
	}
	for name, weight := range c.Principles.Catalog {
		if name == "" {
			return fmt.Errorf("config.principles.catalog contains an empty principle name")
		}
		if weight <= 0 {
			return fmt.Errorf("principle %s must have a positive weight", name)
		}
	}
	if len(c.Windows) > 0 {
		for _, name := range CanonicalWindows {
			w, ok := c.Windows[name]
			if !ok {
				return fmt.Errorf("config.windows missing canonical window %s", name)
			}
			if w.Start == "" || w.End == "" {
				return fmt.Errorf("window %s must set start and end", name)
			}
		}
	}
	if c.Capacities.WeeklyHours < 0 || c.Capacities.MonthlyBudget < 0 || c.Capacities.RunwayMonths < 0 {
		return fmt.Errorf("config.capacities must not be negative")
	}
	return nil
}

// Period returns the configured day-period tag, defaulting to ordinary.
func (c *Config) PeriodOrDefault() string {
	if c.Court.Period == "" {
		return "ordinary"
	}
	return c.Court.Period
}

// FreeMinimum returns the free-space floor as a percentage, defaulting to 40.
func (c *Config) FreeMinimum() float64 {
	if c.Structure.FreeMinimumPercent == 0 {
		return 40
	}
	return c.Structure.FreeMinimumPercent
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "daycourt.yml")
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// GenerateDefault returns default config YAML.
func GenerateDefault(courtID string) string {
	return fmt.Sprintf(defaultTemplate, courtID)
}

// Default returns the default Config struct for a court.
func Default(courtID string) *Config {
	var cfg Config
	cfg.Court.ID = courtID
	cfg.Court.Period = "ordinary"
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, courtID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `court:
  id: %s
  period: ordinary

capacities:
  weekly_hours: 44
  daily_energy: 100
  monthly_budget: 2000
  runway_months: 6
  focus_hours_per_day: 4
  social_hours_per_week: 10
  open_projects: 2
  max_open_projects: 3

principles:
  catalog:
    presence: 0.25
    simplicity: 0.20
    stewardship: 0.20
    reversibility: 0.20
    service: 0.15
  pass_score: 60

structure:
  primary_action_start: "09:30"
  primary_action_duration: "2h"
  routines:
    - name: morning pages
      time: "07:15"
      duration: "30min"
      energy: 3
    - name: inbox sweep
      time: "12:30"
      duration: "30min"
      energy: 2
    - name: evening review
      time: "21:00"
      duration: "30min"
      energy: 2
  non_negotiables:
    - exercise
    - family dinner
  free_minimum_percent: 40

windows:
  lauds:    {start: "06:30", end: "06:45"}
  terce:    {start: "09:00", end: "09:15"}
  sext:     {start: "12:00", end: "12:15"}
  vespers:  {start: "18:00", end: "18:15"}
  compline: {start: "21:30", end: "21:45"}

suggest:
  endpoint: ""
  timeout_seconds: 4
`
