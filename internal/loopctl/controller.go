package loopctl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ralphloop/ralphloop/internal/agent"
	"github.com/ralphloop/ralphloop/internal/analyzer"
	"github.com/ralphloop/ralphloop/internal/circuit"
	"github.com/ralphloop/ralphloop/internal/config"
	"github.com/ralphloop/ralphloop/internal/evidence"
)

// backoff is the short pause between loops that neither exit nor halt.
const backoff = 3 * time.Second

// Controller owns one supervisor session rooted at Dir: it wires the
// rate limiter, analyzer, circuit breaker, evidence collector and agent
// invocation together into the per-iteration protocol.
type Controller struct {
	Dir     string
	Cfg     config.Config
	Timeout time.Duration

	Instructions string

	analyzer *analyzer.Analyzer
	breaker  *circuit.Breaker
	evidence *evidence.Collector
	rate     *rateLimiter

	loopCount int
	status    StatusDocument
}

// New returns a Controller rooted at dir with the given configuration.
func New(dir string, cfg config.Config, timeout time.Duration, instructions string) *Controller {
	return &Controller{
		Dir:          dir,
		Cfg:          cfg,
		Timeout:      timeout,
		Instructions: instructions,
		analyzer:     analyzer.New(dir),
		breaker:      circuit.New(dir),
		evidence: &evidence.Collector{
			Dir:       dir,
			SkipTests: cfg.SkipTestVerification,
			SkipCLI:   cfg.SkipCLIVerification,
		},
		rate: newRateLimiter(dir),
	}
}

// Outcome is what Run returns when the session reaches a terminal state.
type Outcome struct {
	Status     string
	ExitReason string
	LoopCount  int
}

// Run drives the controller until it reaches a terminal state or ctx is
// cancelled. It never returns a non-nil error for agent failures, circuit
// halts, or evidence refusals — those are terminal Outcomes. It returns
// an error only for the "fatal controller error" class: state directory
// unwritable, agent binary unlaunchable.
func (c *Controller) Run(ctx context.Context) (Outcome, error) {
	if err := os.MkdirAll(filepath.Join(c.Dir, "logs"), 0o755); err != nil {
		return Outcome{}, fmt.Errorf("loopctl: create logs dir: %w", err)
	}
	if _, err := c.breaker.Init(); err != nil {
		return Outcome{}, fmt.Errorf("loopctl: init circuit breaker: %w", err)
	}

	c.status = loadStatus(c.Dir)
	c.loopCount = c.status.LoopCount

	for {
		select {
		case <-ctx.Done():
			return c.halt("interrupted")
		default:
		}

		outcome, done, err := c.iterate(ctx)
		if err != nil {
			return Outcome{}, err
		}
		if done {
			return outcome, nil
		}
	}
}

// iterate runs exactly one pass of the eight-step per-iteration protocol.
// done reports whether the session reached a terminal state.
func (c *Controller) iterate(ctx context.Context) (Outcome, bool, error) {
	c.loopCount++

	// Step 1: rate limit.
	if waitErr := c.enforceRateLimit(ctx); waitErr != nil {
		if ctx.Err() != nil {
			outcome, err := c.halt("interrupted")
			return outcome, true, err
		}
		return c.fail(fmt.Errorf("loopctl: rate limit: %w", waitErr))
	}

	// Step 2: circuit check.
	if c.breaker.ShouldHaltExecution() {
		outcome, err := c.halt("circuit open")
		return outcome, true, err
	}

	// Step 3: invoke agent.
	loop := c.loopCount
	logPath := filepath.Join(c.Dir, "logs", fmt.Sprintf("loop-%d.log", loop))
	pending := agent.LoadPendingContext(c.Dir)
	prompt := agent.BuildPrompt(c.Dir, loop, c.Instructions, pending)

	result, err := agent.Invoke(ctx, agent.Options{
		Command: c.Cfg.AgentCommand,
		Args:    c.Cfg.AgentArgs,
		Prompt:  prompt,
		WorkDir: c.Dir,
		LogPath: logPath,
		Timeout: c.Timeout,
	})
	if err != nil {
		return c.fail(fmt.Errorf("loopctl: invoke agent: %w", err))
	}
	if pending != "" {
		if clearErr := agent.ClearContext(c.Dir); clearErr != nil {
			slog.Warn("failed to clear pending context", "error", clearErr)
		}
	}

	if err := c.recordCall(); err != nil {
		return c.fail(fmt.Errorf("loopctl: record call: %w", err))
	}

	// Step 4: analyze.
	analysis, err := c.analyzer.AnalyzeLog(loop, logPath)
	if err != nil {
		slog.Warn("analyzer write failed, continuing", "loop", loop, "error", err)
	}

	errorLine := circuit.ExtractLastErrorLine(result.Output)

	// Step 5: record with circuit breaker. The returned action is not
	// acted on here — the one circuit-check point is Step 2, at the top
	// of the *next* iterate() call (c.breaker.ShouldHaltExecution).
	// Halting immediately on this same loop would skip the
	// forced-evidence check below for the loop that just opened the
	// breaker.
	if _, err := c.breaker.RecordLoopResult(circuit.LoopResult{
		Loop:         loop,
		FilesChanged: analysis.FilesModified,
		HadError:     result.HadError,
		DurationMs:   result.Duration.Milliseconds(),
		ErrorLine:    errorLine,
	}); err != nil {
		return c.fail(fmt.Errorf("loopctl: record circuit result: %w", err))
	}

	c.status.StruggleIndicators = updateStruggleIndicators(
		c.status.StruggleIndicators, analysis.FilesModified, result.HadError, result.Duration.Milliseconds())

	// Step 6: publish.
	if err := c.publish(StatusRunning, fmt.Sprintf("loop %d completed", loop), ""); err != nil {
		slog.Warn("status publish failed", "loop", loop, "error", err)
	}

	// Step 7: exit decision tree.
	history := c.analyzer.History()
	forceEvidence := !c.Cfg.SkipEvidence && (analysis.ExitSignal ||
		history.ConsecutiveTestOnly(loop) >= c.Cfg.MaxConsecutiveTestLoops ||
		history.ConsecutiveDoneSignals(loop) >= c.Cfg.MaxConsecutiveDoneSignals)

	if forceEvidence {
		doc, err := c.evidence.Run(loop)
		if err != nil {
			slog.Warn("evidence collector error, treating as not allowed", "loop", loop, "error", err)
		}
		if doc.OverallStatus.ExitAllowed {
			outcome, err := c.exit("evidence gates passed")
			return outcome, true, err
		}
		c.logFailingGates(doc)
	}

	select {
	case <-ctx.Done():
		outcome, err := c.halt("interrupted")
		return outcome, true, err
	case <-time.After(backoff):
	}

	return Outcome{}, false, nil
}

func (c *Controller) enforceRateLimit(ctx context.Context) error {
	now := time.Now()
	state, err := c.rate.resetIfNewHour(now)
	if err != nil {
		return fmt.Errorf("loopctl: rate limiter reset: %w", err)
	}
	if state.CallsMadeThisHour < c.Cfg.MaxCallsPerHour {
		return nil
	}

	wait := time.Until(nextHourBoundary(now))
	if err := c.publish(StatusWaiting, "rate limit reached, waiting for next hour", ""); err != nil {
		slog.Warn("status publish failed", "error", err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
	}
	_, err = c.rate.resetIfNewHour(time.Now())
	return err
}

func (c *Controller) recordCall() error {
	return c.rate.recordCall(time.Now())
}

func (c *Controller) publish(status, lastAction, exitReason string) error {
	c.status.LoopCount = c.loopCount
	c.status.CallsMadeThisHour = c.rate.load().CallsMadeThisHour
	c.status.MaxCallsPerHour = c.Cfg.MaxCallsPerHour
	c.status.Status = status
	c.status.LastAction = lastAction
	c.status.ExitReason = exitReason

	breakerState := c.breaker.Current()
	c.status.CircuitBreaker = &breakerState

	evidenceDoc := c.evidence.Status()
	overall := evidenceDoc.OverallStatus
	c.status.Evidence = &overall

	return saveStatus(c.Dir, c.status)
}

func (c *Controller) exit(reason string) (Outcome, error) {
	if err := c.publish(StatusExited, reason, reason); err != nil {
		slog.Warn("final status publish failed", "error", err)
	}
	return Outcome{Status: StatusExited, ExitReason: reason, LoopCount: c.loopCount}, nil
}

func (c *Controller) halt(reason string) (Outcome, error) {
	if err := c.publish(StatusHalted, reason, reason); err != nil {
		slog.Warn("final status publish failed", "error", err)
	}
	if reason == "circuit open" {
		c.printCircuitHistory()
	}
	return Outcome{Status: StatusHalted, ExitReason: reason, LoopCount: c.loopCount}, nil
}

func (c *Controller) fail(cause error) (Outcome, bool, error) {
	if err := c.publish(StatusFailed, cause.Error(), cause.Error()); err != nil {
		slog.Warn("final status publish failed", "error", err)
	}
	return Outcome{}, true, cause
}

func (c *Controller) printCircuitHistory() {
	hist := c.breaker.History()
	slog.Error("circuit breaker halted execution", "transitions", len(hist.Transitions))
	for _, t := range hist.Transitions {
		slog.Info("circuit transition", "from", t.From, "to", t.To, "loop", t.Loop, "reason", t.Reason, "at", t.At)
	}
}

func (c *Controller) logFailingGates(doc evidence.Document) {
	for _, name := range evidence.GateOrder {
		rec := doc.VerificationGates[name]
		if rec.Status != evidence.StatusVerified && rec.Status != evidence.StatusSkipped {
			slog.Warn("evidence gate not satisfied", "gate", name, "status", rec.Status, "evidence", rec.Evidence)
		}
	}
}
