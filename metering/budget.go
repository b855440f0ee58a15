package metering

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const defaultBudgetFile = "logs/api_usage.json"

type BudgetConfig struct {
	UsageFile string `envconfig:"USAGE_FILE" split_words:"true" default:"logs/api_usage.json"`
}

// serviceLimit is a provider free tier expressed per calendar month, plus
// the unit cost once the tier is exhausted.
type serviceLimit struct {
	FreeCalls   int
	CostPerCall float64
}

var serviceLimits = map[string]serviceLimit{
	"geolocation": {FreeCalls: 45000, CostPerCall: 0},
	"weather":     {FreeCalls: 30000, CostPerCall: 0.0015},
	"google_maps": {FreeCalls: 40000, CostPerCall: 0.005},
	"openai":      {FreeCalls: 0, CostPerCall: 0.002},
}

type budgetFile struct {
	Month    string         `json:"month"`
	Services map[string]int `json:"services"`
}

// ServiceUsage is one row of the budget report.
type ServiceUsage struct {
	Service       string  `json:"service"`
	Calls         int     `json:"calls"`
	FreeCalls     int     `json:"free_calls"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// BudgetReport is the payload behind GET /budget.
type BudgetReport struct {
	Month              string         `json:"month"`
	Services           []ServiceUsage `json:"services"`
	TotalEstimatedCost float64        `json:"total_estimated_cost"`
}

// BudgetTracker counts outbound provider calls per calendar month and
// estimates spend against each provider's free tier. It satisfies
// contract.CallMeter. Counts reset when the month rolls over.
type BudgetTracker struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewBudgetTracker(cfg BudgetConfig) *BudgetTracker {
	path := cfg.UsageFile
	if path == "" {
		path = defaultBudgetFile
	}
	return &BudgetTracker{path: path, now: time.Now}
}

// MeterCall records one outbound call for a provider service.
func (b *BudgetTracker) MeterCall(service string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, err := b.load()
	if err != nil {
		state = budgetFile{}
	}

	month := b.now().UTC().Format("2006-01")
	if state.Month != month || state.Services == nil {
		state = budgetFile{Month: month, Services: map[string]int{}}
	}
	state.Services[service]++

	// Metering must never fail a request; a write error only loses a count.
	_ = b.save(state)
}

// Report summarizes the current month's usage across all known services.
func (b *BudgetTracker) Report() (BudgetReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, err := b.load()
	if err != nil {
		return BudgetReport{}, err
	}

	month := b.now().UTC().Format("2006-01")
	if state.Month != month {
		state = budgetFile{Month: month, Services: map[string]int{}}
	}

	report := BudgetReport{Month: month}
	for _, service := range []string{"geolocation", "weather", "google_maps", "openai"} {
		limit := serviceLimits[service]
		calls := state.Services[service]

		cost := 0.0
		if billable := calls - limit.FreeCalls; billable > 0 {
			cost = float64(billable) * limit.CostPerCall
		}
		if limit.FreeCalls == 0 {
			cost = float64(calls) * limit.CostPerCall
		}

		report.Services = append(report.Services, ServiceUsage{
			Service:       service,
			Calls:         calls,
			FreeCalls:     limit.FreeCalls,
			EstimatedCost: cost,
		})
		report.TotalEstimatedCost += cost
	}
	return report, nil
}

func (b *BudgetTracker) load() (budgetFile, error) {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return budgetFile{}, nil
		}
		return budgetFile{}, fmt.Errorf("read budget file: %w", err)
	}

	var state budgetFile
	if err := json.Unmarshal(raw, &state); err != nil {
		return budgetFile{}, fmt.Errorf("decode budget file: %w", err)
	}
	return state, nil
}

func (b *BudgetTracker) save(state budgetFile) error {
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal budget state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("budget mkdir: %w", err)
	}
	if err := os.WriteFile(b.path, payload, 0o644); err != nil {
		return fmt.Errorf("write budget file: %w", err)
	}
	return nil
}
