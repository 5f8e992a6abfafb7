package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	outputFormat string
	skipEvidence bool
	skipTests    bool
	skipCLI      bool
	timeoutMin   int
)

var rootCmd = &cobra.Command{
	Use:   "ralphloop",
	Short: "Autonomous agent-loop supervisor",
	Long: `ralphloop repeatedly invokes a coding-agent subprocess, analyzes its
output and the working tree, and decides whether to continue, halt on
stagnation, or exit once the evidence gates agree the work is done.

Run with no subcommand to start the loop in the current directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runLoop,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&skipEvidence, "skip-evidence", false, "never force an evidence check")
	rootCmd.PersistentFlags().BoolVar(&skipTests, "skip-tests", false, "skip the tests_passed gate")
	rootCmd.PersistentFlags().BoolVar(&skipCLI, "skip-cli", false, "skip the cli_functional gate")
	rootCmd.Flags().IntVar(&timeoutMin, "timeout", 30, "per-invocation wall-clock timeout in minutes")

	rootCmd.AddCommand(resetAllCmd)
	rootCmd.AddCommand(verifyEvidenceCmd)
	rootCmd.AddCommand(evidenceStatusCmd)
	rootCmd.AddCommand(contextCmd)
}

// Execute runs the root command and terminates the process with the
// appropriate exit code on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(exitCodeError); ok {
			if exitErr.msg != "" {
				fmt.Fprintln(os.Stderr, exitErr.msg)
			}
			os.Exit(exitErr.code)
		}
		slog.Error(err.Error())
		os.Exit(2)
	}
}

// exitCodeError lets a RunE return a specific process exit code while
// still satisfying the plain error interface cobra expects.
type exitCodeError struct {
	code int
	msg  string
}

func (e exitCodeError) Error() string { return e.msg }

func currentDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return dir, nil
}
