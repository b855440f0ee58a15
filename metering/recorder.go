// Package metering owns the usage side-state: an append-only event line
// log, per-request metrics records, and the API budget tracker. The engine
// only talks to these through the contract interfaces; file layout and
// write serialization live here.
package metering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
)

const (
	defaultMetricsFile = "logs/metrics.json"
	defaultEventFile   = "logs/system.log"
)

type FileConfig struct {
	MetricsFile string `envconfig:"METRICS_FILE" split_words:"true" default:"logs/metrics.json"`
	EventFile   string `envconfig:"EVENT_FILE" split_words:"true" default:"logs/system.log"`
}

// FileRecorder persists metrics as a JSON array file and events as
// timestamped lines. Writes are mutex-serialized across concurrent
// requests; both files are append-only from the caller's point of view.
type FileRecorder struct {
	mu          sync.Mutex
	metricsPath string
	eventPath   string
}

func NewFileRecorder(cfg FileConfig) *FileRecorder {
	metricsPath := cfg.MetricsFile
	if metricsPath == "" {
		metricsPath = defaultMetricsFile
	}
	eventPath := cfg.EventFile
	if eventPath == "" {
		eventPath = defaultEventFile
	}
	return &FileRecorder{metricsPath: metricsPath, eventPath: eventPath}
}

// Record appends one per-request metrics record and a summary event line.
func (r *FileRecorder) Record(_ context.Context, rec contractx.RequestMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.appendMetrics(rec); err != nil {
		return err
	}
	return r.appendEvent(fmt.Sprintf(
		"Request completed in %.2fs | Agents: %d | API calls: %d | Errors: %d",
		rec.ProcessingTime, rec.AgentsUsed, rec.APICalls, rec.Errors,
	))
}

// Stats aggregates all recorded requests.
func (r *FileRecorder) Stats(_ context.Context) (contractx.UsageStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return contractx.UsageStats{}, err
	}
	if len(records) == 0 {
		return contractx.UsageStats{}, nil
	}

	stats := contractx.UsageStats{TotalRequests: len(records)}
	totalTime := 0.0
	for _, m := range records {
		if m.Success {
			stats.SuccessfulRequests++
		}
		stats.TotalErrors += m.Errors
		totalTime += m.ProcessingTime
	}
	stats.SuccessRate = fmt.Sprintf("%.1f%%", float64(stats.SuccessfulRequests)/float64(stats.TotalRequests)*100)
	stats.AverageTime = fmt.Sprintf("%.2fs", totalTime/float64(stats.TotalRequests))
	return stats, nil
}

func (r *FileRecorder) load() ([]contractx.RequestMetrics, error) {
	raw, err := os.ReadFile(r.metricsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metrics file: %w", err)
	}

	var records []contractx.RequestMetrics
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode metrics file: %w", err)
	}
	return records, nil
}

func (r *FileRecorder) appendMetrics(rec contractx.RequestMetrics) error {
	records, err := r.load()
	if err != nil {
		return err
	}
	records = append(records, rec)

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.metricsPath), 0o755); err != nil {
		return fmt.Errorf("metrics mkdir: %w", err)
	}
	if err := os.WriteFile(r.metricsPath, payload, 0o644); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

func (r *FileRecorder) appendEvent(msg string) error {
	if err := os.MkdirAll(filepath.Dir(r.eventPath), 0o755); err != nil {
		return fmt.Errorf("event mkdir: %w", err)
	}
	f, err := os.OpenFile(r.eventPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("event open: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] INFO: %s\n", time.Now().UTC().Format("2006-01-02 15:04:05"), msg)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("event write: %w", err)
	}
	return nil
}
