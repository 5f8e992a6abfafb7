package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ralphloop/ralphloop/internal/config"
	"github.com/ralphloop/ralphloop/internal/loopctl"
)

const defaultInstructions = `Work the next unit of the task. When the work is complete, emit a
---RALPH_STATUS---
STATUS: COMPLETE
EXIT_SIGNAL: true
---END_RALPH_STATUS---
block.`

func runLoop(cmd *cobra.Command, args []string) error {
	dir, err := currentDir()
	if err != nil {
		return err
	}

	cfg := config.Load()
	cfg.SkipTestVerification = cfg.SkipTestVerification || skipTests
	cfg.SkipCLIVerification = cfg.SkipCLIVerification || skipCLI
	cfg.SkipEvidence = cfg.SkipEvidence || skipEvidence

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Starting ralphloop supervisor... (Ctrl+C to stop)")

	ctl := loopctl.New(dir, cfg, time.Duration(timeoutMin)*time.Minute, defaultInstructions)
	outcome, err := ctl.Run(ctx)
	if err != nil {
		slog.Error("controller failed", "error", err)
		return exitCodeError{code: 1, msg: fmt.Sprintf("ralphloop: %v", err)}
	}

	fmt.Printf("\nSession ended: status=%s loops=%d reason=%q\n", outcome.Status, outcome.LoopCount, outcome.ExitReason)

	switch outcome.Status {
	case loopctl.StatusExited:
		return nil
	case loopctl.StatusHalted:
		return exitCodeError{code: 1}
	default:
		return exitCodeError{code: 1}
	}
}
