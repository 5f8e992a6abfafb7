package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ralphloop/ralphloop/internal/loopctl"
	"github.com/ralphloop/ralphloop/internal/statefile"
	"github.com/ralphloop/ralphloop/internal/tools"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current status.json snapshot",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir, err := currentDir()
	if err != nil {
		return err
	}

	var doc loopctl.StatusDocument
	if err := statefile.Load(filepath.Join(dir, "status.json"), &doc); err != nil {
		fmt.Println("No status.json found; the loop has not run yet in this directory.")
		return nil
	}

	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		fmt.Print(string(data))
	default:
		printStatusTable(doc)
	}
	return nil
}

func printStatusTable(doc loopctl.StatusDocument) {
	fmt.Println("ralphloop status")
	fmt.Println("=================")
	fmt.Printf("Status:       %s\n", doc.Status)
	fmt.Printf("Loop count:   %d\n", doc.LoopCount)
	fmt.Printf("Calls/hour:   %d / %d\n", doc.CallsMadeThisHour, doc.MaxCallsPerHour)
	if doc.LastAction != "" {
		fmt.Printf("Last action:  %s\n", doc.LastAction)
	}
	if doc.ExitReason != "" {
		fmt.Printf("Exit reason:  %s\n", doc.ExitReason)
	}
	fmt.Printf("Updated:      %s (%s ago)\n", doc.UpdatedAt.Format(time.RFC3339),
		tools.FormatDurationLong(time.Since(doc.UpdatedAt).Milliseconds()))

	if doc.CircuitBreaker != nil {
		fmt.Printf("\nCircuit breaker: %s  no_progress=%d  consecutive_same_error=%d\n",
			doc.CircuitBreaker.Phase, doc.CircuitBreaker.NoProgressCount, doc.CircuitBreaker.ConsecutiveSameError)
	}
	if doc.Evidence != nil {
		fmt.Printf("Evidence:        verified=%d failed=%d skipped=%d exit_allowed=%t\n",
			doc.Evidence.GatesVerified, doc.Evidence.GatesFailed, doc.Evidence.GatesSkipped, doc.Evidence.ExitAllowed)
	}

	si := doc.StruggleIndicators
	if si.NoProgressIterations >= 3 || si.ShortIterations >= 3 {
		fmt.Println("\nPotential struggle detected:")
		if si.NoProgressIterations >= 3 {
			fmt.Printf("  - no file changes in %d iterations\n", si.NoProgressIterations)
		}
		if si.ShortIterations >= 3 {
			fmt.Printf("  - %d very short iterations\n", si.ShortIterations)
		}
		fmt.Println("  tip: use 'ralphloop context add \"hint\"' to guide the next iteration")
	}
}
