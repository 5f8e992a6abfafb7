package loopctl

import (
	"path/filepath"
	"time"

	"github.com/ralphloop/ralphloop/internal/circuit"
	"github.com/ralphloop/ralphloop/internal/evidence"
	"github.com/ralphloop/ralphloop/internal/statefile"
)

const statusFile = "status.json"

// Status values.
const (
	StatusInitializing = "initializing"
	StatusRunning      = "running"
	StatusWaiting      = "waiting"
	StatusExited       = "exited"
	StatusHalted       = "halted"
	StatusFailed       = "failed"
)

// StruggleIndicators are operator-facing diagnostics that do not gate
// anything the Circuit Breaker doesn't already gate — see SPEC_FULL.md's
// supplementary-features section.
type StruggleIndicators struct {
	NoProgressIterations int `json:"no_progress_iterations"`
	ShortIterations      int `json:"short_iterations"`
}

// StatusDocument is the persisted record at status.json.
type StatusDocument struct {
	LoopCount          int                     `json:"loop_count"`
	CallsMadeThisHour  int                     `json:"calls_made_this_hour"`
	MaxCallsPerHour    int                     `json:"max_calls_per_hour"`
	Status             string                  `json:"status"`
	LastAction         string                  `json:"last_action,omitempty"`
	ExitReason         string                  `json:"exit_reason,omitempty"`
	StruggleIndicators StruggleIndicators      `json:"struggle_indicators"`
	CircuitBreaker     *circuit.State          `json:"circuit_breaker,omitempty"`
	Evidence           *evidence.OverallStatus `json:"evidence,omitempty"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

func loadStatus(dir string) StatusDocument {
	var doc StatusDocument
	_ = statefile.Load(filepath.Join(dir, statusFile), &doc)
	return doc
}

func saveStatus(dir string, doc StatusDocument) error {
	doc.UpdatedAt = time.Now().UTC()
	return statefile.RetryOnce(func() error {
		return statefile.Save(filepath.Join(dir, statusFile), doc)
	})
}

// shortIterationThresholdMs marks an iteration as "short" for the
// struggle-indicator counter — a proxy for the agent doing very little
// work before returning.
const shortIterationThresholdMs = 30_000

func updateStruggleIndicators(prev StruggleIndicators, filesModified int, hadError bool, durationMs int64) StruggleIndicators {
	next := prev
	if filesModified == 0 && !hadError {
		next.NoProgressIterations++
	} else {
		next.NoProgressIterations = 0
	}
	if durationMs < shortIterationThresholdMs {
		next.ShortIterations++
	} else {
		next.ShortIterations = 0
	}
	return next
}
