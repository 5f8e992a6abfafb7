// Package analyzer implements the Response Analyzer: it classifies one
// agent invocation's captured output and working-tree diff into a
// structured analysis record, and feeds the rolling exit-signal history
// the Loop Controller consults before forcing an evidence check.
package analyzer

// ResponseAnalysis is the per-loop record persisted to
// .response_analysis. Every loop overwrites the previous record.
type ResponseAnalysis struct {
	Loop                int               `json:"loop"`
	OutputFormat        string            `json:"output_format"`
	StructuredFields    map[string]string `json:"structured_fields,omitempty"`
	HasCompletionSignal bool              `json:"has_completion_signal"`
	IsTestOnly          bool              `json:"is_test_only"`
	FilesModified       int               `json:"files_modified"`
	OutputLength        int               `json:"output_length"`
	ConfidenceScore     int               `json:"confidence_score"`
	ExitSignal          bool              `json:"exit_signal"`
}

// OutputFormat values.
const (
	FormatStructured = "structured"
	FormatText       = "text"
)

// historyCap bounds every sequence in ExitSignalHistory at the five most
// recent entries, oldest evicted first.
const historyCap = 5

// ExitSignalHistory tracks which recent loops produced which class of
// exit signal. Each sequence is strictly non-decreasing in loop number;
// insertion always appends to the tail.
type ExitSignalHistory struct {
	TestOnlyLoops        []int `json:"test_only_loops"`
	DoneSignals          []int `json:"done_signals"`
	CompletionIndicators []int `json:"completion_indicators"`
}

func appendCapped(seq []int, loop int) []int {
	seq = append(seq, loop)
	if len(seq) > historyCap {
		seq = seq[len(seq)-historyCap:]
	}
	return seq
}

// trailingRun returns the length of the run at the tail of seq whose
// values are consecutive integers ending at upto (e.g. loops 5,6,7 for
// upto=7 returns 3; a gap anywhere breaks the run).
func trailingRun(seq []int, upto int) int {
	run := 0
	want := upto
	for i := len(seq) - 1; i >= 0; i-- {
		if seq[i] != want {
			break
		}
		run++
		want--
	}
	return run
}

// ConsecutiveTestOnly returns how many of the most recent loops ending at
// the given loop number were classified test-only, back to back.
func (h ExitSignalHistory) ConsecutiveTestOnly(uptoLoop int) int {
	return trailingRun(h.TestOnlyLoops, uptoLoop)
}

// ConsecutiveDoneSignals returns how many of the most recent loops ending
// at the given loop number produced a completion signal, back to back.
func (h ExitSignalHistory) ConsecutiveDoneSignals(uptoLoop int) int {
	return trailingRun(h.DoneSignals, uptoLoop)
}
