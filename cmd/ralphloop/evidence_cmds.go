package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ralphloop/ralphloop/internal/evidence"
)

var verifyEvidenceCmd = &cobra.Command{
	Use:   "verify-evidence",
	Short: "Run all evidence gates once and print the summary",
	Long:  "Runs every verification gate against the current working tree and exits 0 iff exit_allowed is true.",
	RunE:  runVerifyEvidence,
}

var evidenceStatusCmd = &cobra.Command{
	Use:   "evidence-status",
	Short: "Print the current evidence record without running gates",
	RunE:  runEvidenceStatus,
}

func runVerifyEvidence(cmd *cobra.Command, args []string) error {
	dir, err := currentDir()
	if err != nil {
		return err
	}

	collector := &evidence.Collector{Dir: dir, SkipTests: skipTests, SkipCLI: skipCLI}
	doc, err := collector.Run(0)
	if err != nil {
		return exitCodeError{code: 1, msg: fmt.Sprintf("ralphloop: run evidence gates: %v", err)}
	}

	if err := printDocument(doc); err != nil {
		return err
	}

	if !doc.OverallStatus.ExitAllowed {
		return exitCodeError{code: 1}
	}
	return nil
}

func runEvidenceStatus(cmd *cobra.Command, args []string) error {
	dir, err := currentDir()
	if err != nil {
		return err
	}

	collector := evidence.New(dir)
	return printDocument(collector.Status())
}

func printDocument(doc evidence.Document) error {
	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal evidence document: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal evidence document: %w", err)
		}
		fmt.Print(string(data))
	default:
		printDocumentTable(doc)
	}
	return nil
}

func printDocumentTable(doc evidence.Document) {
	fmt.Printf("Evidence session %s (loop %d)\n", doc.SessionID, doc.LoopNumber)
	fmt.Println("Gate                    Status     Detail")
	for _, name := range evidence.GateOrder {
		rec := doc.VerificationGates[name]
		detail := ""
		if rec.Evidence != nil {
			for _, key := range []string{"reason", "error"} {
				if v, ok := rec.Evidence[key]; ok {
					detail = fmt.Sprintf("%v", v)
					break
				}
			}
		}
		fmt.Printf("%-24s %-10s %s\n", name, rec.Status, detail)
	}
	fmt.Printf("\nverified=%d failed=%d skipped=%d all_gates_passed=%t exit_allowed=%t\n",
		doc.OverallStatus.GatesVerified, doc.OverallStatus.GatesFailed, doc.OverallStatus.GatesSkipped,
		doc.OverallStatus.AllGatesPassed, doc.OverallStatus.ExitAllowed)
}
