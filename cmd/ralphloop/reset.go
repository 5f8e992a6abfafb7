package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// resetFiles lists every state file the controller owns, per the
// persisted-state-layout section of the design notes.
var resetFiles = []string{
	"status.json",
	"progress.json",
	".response_analysis",
	".exit_signals",
	".circuit_breaker_state",
	".circuit_breaker_history",
	".ralph_evidence.json",
	".call_count",
	".last_reset",
	".ralph_pending_context",
}

var resetAllCmd = &cobra.Command{
	Use:   "reset-all",
	Short: "Delete all state files and exit",
	Long:  "Removes every controller-owned state file in the working directory. Idempotent: missing files are not an error.",
	RunE:  runResetAll,
}

func runResetAll(cmd *cobra.Command, args []string) error {
	dir, err := currentDir()
	if err != nil {
		return err
	}

	for _, name := range resetFiles {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return exitCodeError{code: 1, msg: fmt.Sprintf("ralphloop: remove %s: %v", name, err)}
		}
	}

	fmt.Println("All state files removed.")
	return nil
}
