package circuit

import (
	"path/filepath"
	"time"

	"github.com/ralphloop/ralphloop/internal/statefile"
)

const (
	stateFile   = ".circuit_breaker_state"
	historyFile = ".circuit_breaker_history"
)

// ActionProceed and ActionHalt are the two outcomes RecordLoopResult can
// report back to the Loop Controller.
const (
	ActionProceed = "proceed"
	ActionHalt    = "halt"
)

// Breaker wraps the pure transition function with persistence rooted at
// dir.
type Breaker struct {
	Dir string
}

// New returns a Breaker rooted at dir.
func New(dir string) *Breaker {
	return &Breaker{Dir: dir}
}

// Init loads the persisted state, writing a fresh CLOSED record if the
// file is absent or corrupt.
func (b *Breaker) Init() (State, error) {
	var s State
	if err := statefile.Load(b.path(stateFile), &s); err != nil {
		s = fresh()
		if err := statefile.Save(b.path(stateFile), s); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Current returns the persisted state without side effects, defaulting
// to a fresh CLOSED record if none exists yet.
func (b *Breaker) Current() State {
	var s State
	if err := statefile.Load(b.path(stateFile), &s); err != nil {
		return fresh()
	}
	return s
}

// ShouldHaltExecution reports whether the breaker is OPEN.
func (b *Breaker) ShouldHaltExecution() bool {
	return b.Current().Phase == Open
}

// RecordLoopResult is called exactly once per loop, after the analyzer
// has produced its record and before the controller decides whether to
// continue. It persists the updated state, appends a history entry on
// any transition, and reports whether execution may proceed.
func (b *Breaker) RecordLoopResult(result LoopResult) (action string, err error) {
	current := b.Current()
	if current.Phase == Open {
		return ActionHalt, nil
	}

	next, reason, transitioned := apply(current, result)
	now := time.Now().UTC()
	if transitioned {
		next.LastTransitionAt = now
		if next.Phase == Open {
			next.OpenedAt = now
		}
	}

	if err := statefile.RetryOnce(func() error {
		return statefile.Save(b.path(stateFile), next)
	}); err != nil {
		return "", err
	}

	if transitioned {
		if err := b.appendHistory(Transition{
			From:   current.Phase,
			To:     next.Phase,
			Loop:   result.Loop,
			Reason: reason,
			At:     now,
		}); err != nil {
			return "", err
		}
	}

	if next.Phase == Open {
		return ActionHalt, nil
	}
	return ActionProceed, nil
}

// Reset forces the breaker back to CLOSED with all counters zeroed and
// appends a history entry recording why.
func (b *Breaker) Reset(reason string) error {
	current := b.Current()
	next := fresh()
	next.LastTransitionAt = time.Now().UTC()

	if err := statefile.RetryOnce(func() error {
		return statefile.Save(b.path(stateFile), next)
	}); err != nil {
		return err
	}

	return b.appendHistory(Transition{
		From:   current.Phase,
		To:     next.Phase,
		Loop:   0,
		Reason: reason,
		At:     next.LastTransitionAt,
	})
}

// History returns the full transition journal.
func (b *Breaker) History() History {
	var h History
	if err := statefile.Load(b.path(historyFile), &h); err != nil {
		return History{}
	}
	return h
}

func (b *Breaker) appendHistory(t Transition) error {
	h := b.History()
	h.Transitions = append(h.Transitions, t)
	return statefile.RetryOnce(func() error {
		return statefile.Save(b.path(historyFile), h)
	})
}

func (b *Breaker) path(name string) string {
	return filepath.Join(b.Dir, name)
}
