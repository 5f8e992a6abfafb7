package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ralphloop/ralphloop/internal/agent"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Queue or clear mid-loop context for the next agent invocation",
}

var contextAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Append text to the context queued for the next loop iteration",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runContextAdd,
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard any queued mid-loop context",
	RunE:  runContextClear,
}

func init() {
	contextCmd.AddCommand(contextAddCmd)
	contextCmd.AddCommand(contextClearCmd)
}

func runContextAdd(cmd *cobra.Command, args []string) error {
	dir, err := currentDir()
	if err != nil {
		return err
	}
	text := strings.Join(args, " ")
	if err := agent.SaveContext(dir, text); err != nil {
		return exitCodeError{code: 1, msg: fmt.Sprintf("ralphloop: save context: %v", err)}
	}
	fmt.Println("Context queued for the next loop iteration.")
	return nil
}

func runContextClear(cmd *cobra.Command, args []string) error {
	dir, err := currentDir()
	if err != nil {
		return err
	}
	if err := agent.ClearContext(dir); err != nil {
		return exitCodeError{code: 1, msg: fmt.Sprintf("ralphloop: clear context: %v", err)}
	}
	fmt.Println("Pending context cleared.")
	return nil
}
