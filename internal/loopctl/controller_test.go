package loopctl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ralphloop/ralphloop/internal/circuit"
	"github.com/ralphloop/ralphloop/internal/config"
)

func newTestController(t *testing.T, agentScript string) *Controller {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}

	cfg := config.Config{
		MaxCallsPerHour:           100,
		MaxConsecutiveTestLoops:   3,
		MaxConsecutiveDoneSignals: 2,
		SkipTestVerification:      true,
		SkipCLIVerification:       true,
		AgentCommand:              "sh",
		AgentArgs:                 []string{"-c", agentScript},
	}

	c := New(dir, cfg, 5*time.Second, "work the next unit")
	if _, err := c.breaker.Init(); err != nil {
		t.Fatalf("breaker init: %v", err)
	}
	return c
}

func TestIterateContinuesOnNormalLoop(t *testing.T) {
	c := newTestController(t, "printf 'Thinking about the approach.\n'")

	outcome, done, err := c.iterate(context.Background())
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if done {
		t.Fatalf("expected a normal loop to continue, got terminal outcome %+v", outcome)
	}
}

// TestForcedEvidenceRunsOnTheSameLoopTheCircuitOpens exercises the
// three-test-only-loops scenario end to end: each loop leaves no files
// changed, so the circuit breaker advances CLOSED -> HALF_OPEN (loop 2)
// -> OPEN (loop 3) on the same schedule the response analyzer advances
// its test-only streak toward the forced-evidence threshold. Both must
// fire on loop 3 — the evidence check must not be skipped just because
// the breaker happened to open on the same iteration.
func TestForcedEvidenceRunsOnTheSameLoopTheCircuitOpens(t *testing.T) {
	c := newTestController(t, "printf 'Running tests\\npass\\n'")

	var last Outcome
	for i := 1; i <= 3; i++ {
		outcome, done, err := c.iterate(context.Background())
		if err != nil {
			t.Fatalf("iterate(%d): %v", i, err)
		}
		if i < 3 && done {
			t.Fatalf("iterate(%d): expected the session still running, got terminal outcome %+v", i, outcome)
		}
		last = outcome
	}

	if !c.breaker.ShouldHaltExecution() {
		t.Fatal("expected the circuit breaker to be OPEN after three no-progress loops")
	}

	evidencePath := filepath.Join(c.Dir, ".ralph_evidence.json")
	if _, err := os.Stat(evidencePath); err != nil {
		t.Fatalf("expected the forced evidence check to have run on loop 3: %v", err)
	}
	doc := c.evidence.Status()
	if doc.LoopNumber != 3 {
		t.Errorf("evidence LoopNumber = %d, want 3 (the loop that opened the breaker)", doc.LoopNumber)
	}

	// The session itself does not exit yet (the documentation_exists gate
	// fails in an empty temp dir), so loop 3 must still report non-terminal.
	if last.Status != "" {
		t.Errorf("loop 3 outcome = %+v, want non-terminal (evidence gates did not all pass)", last)
	}

	// Loop 4 is where the breaker's OPEN state actually takes effect, per
	// Step 2 at the top of the next iterate() call.
	outcome, done, err := c.iterate(context.Background())
	if err != nil {
		t.Fatalf("iterate(4): %v", err)
	}
	if !done {
		t.Fatal("expected iterate(4) to halt now that the circuit is open")
	}
	if outcome.Status != StatusHalted {
		t.Errorf("outcome.Status = %s, want %s", outcome.Status, StatusHalted)
	}
	if outcome.ExitReason != "circuit open" {
		t.Errorf("outcome.ExitReason = %q, want %q", outcome.ExitReason, "circuit open")
	}
}

func TestIterateHaltsImmediatelyWhenCircuitAlreadyOpen(t *testing.T) {
	c := newTestController(t, "true")

	for i := 1; i <= 3; i++ {
		if _, err := c.breaker.RecordLoopResult(circuit.LoopResult{Loop: i, FilesChanged: 0, HadError: false}); err != nil {
			t.Fatalf("RecordLoopResult(%d): %v", i, err)
		}
	}
	if !c.breaker.ShouldHaltExecution() {
		t.Fatal("expected breaker open after three no-progress loops")
	}

	outcome, done, err := c.iterate(context.Background())
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if !done {
		t.Fatal("expected iterate to halt without invoking the agent when the circuit is already open")
	}
	if outcome.Status != StatusHalted {
		t.Errorf("outcome.Status = %s, want %s", outcome.Status, StatusHalted)
	}
}
