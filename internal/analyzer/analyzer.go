package analyzer

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/ralphloop/ralphloop/internal/git"
	"github.com/ralphloop/ralphloop/internal/statefile"
)

const (
	responseAnalysisFile = ".response_analysis"
	exitSignalsFile      = ".exit_signals"
)

// Analyzer runs the Response Analyzer algorithm against one loop's
// captured log and the repository's working-tree diff, against the
// given root directory.
type Analyzer struct {
	Dir string
}

// New returns an Analyzer rooted at dir.
func New(dir string) *Analyzer {
	return &Analyzer{Dir: dir}
}

// Analyze reads logPath, classifies the output, counts modified files
// via the git diff collaborator, persists
// the resulting ResponseAnalysis to .response_analysis, and updates
// .exit_signals. It never returns an error that should abort the loop —
// a missing or unreadable log is analyzed as empty output: text format,
// confidence score 0, no exit signal.
func (a *Analyzer) Analyze(loop int) (*ResponseAnalysis, error) {
	return a.AnalyzeLog(loop, a.logPath(loop))
}

// AnalyzeLog is the same as Analyze but takes an explicit log path,
// useful for tests and for callers that keep per-loop logs under a
// custom directory.
func (a *Analyzer) AnalyzeLog(loop int, logPath string) (*ResponseAnalysis, error) {
	output := ""
	if data, err := os.ReadFile(logPath); err == nil {
		output = string(data)
	}

	prevOutputLength := a.loadPrevOutputLength()

	fields, structuredPresent := detectStructuredBlock(output)
	format := FormatText
	if structuredPresent {
		format = FormatStructured
	}

	completionKeyword := hasCompletionKeyword(output)
	exitSignalField := fields["EXIT_SIGNAL"] == "true"
	hasCompletion := exitSignalField || completionKeyword

	testOnly := isTestOnly(output)
	shortAfterLong := output != "" && shortOutputAfterLong(len(output), prevOutputLength)

	filesModified := 0
	if git.IsRepo(a.Dir) {
		if files, err := git.ChangedFiles(a.Dir); err == nil {
			filesModified = len(files)
		}
	}

	// The structured block only contributes its full weight toward the
	// confidence score when it actually declares completion; an
	// IN_PROGRESS/BLOCKED block with EXIT_SIGNAL: false must not cross the
	// threshold on the block's presence alone.
	structuredCompletion := structuredPresent && (exitSignalField || fields["STATUS"] == "COMPLETE")
	score := confidenceScore(structuredCompletion, completionKeyword, testOnly, shortAfterLong)
	exitSignal := exitSignalField || score >= exitSignalThreshold

	analysis := &ResponseAnalysis{
		Loop:                loop,
		OutputFormat:        format,
		StructuredFields:    fields,
		HasCompletionSignal: hasCompletion,
		IsTestOnly:          testOnly,
		FilesModified:       filesModified,
		OutputLength:        len(output),
		ConfidenceScore:     score,
		ExitSignal:          exitSignal,
	}

	if err := statefile.RetryOnce(func() error {
		return statefile.Save(a.path(responseAnalysisFile), analysis)
	}); err != nil {
		return analysis, err
	}

	history := a.loadHistory()
	if testOnly {
		history.TestOnlyLoops = appendCapped(history.TestOnlyLoops, loop)
	}
	if hasCompletion {
		history.DoneSignals = appendCapped(history.DoneSignals, loop)
	}
	if fields["STATUS"] == "COMPLETE" {
		history.CompletionIndicators = appendCapped(history.CompletionIndicators, loop)
	}

	if err := statefile.RetryOnce(func() error {
		return statefile.Save(a.path(exitSignalsFile), history)
	}); err != nil {
		return analysis, err
	}

	return analysis, nil
}

// History returns the current exit-signal history without running an
// analysis pass.
func (a *Analyzer) History() ExitSignalHistory {
	return a.loadHistory()
}

func (a *Analyzer) loadHistory() ExitSignalHistory {
	var history ExitSignalHistory
	if err := statefile.Load(a.path(exitSignalsFile), &history); err != nil {
		return ExitSignalHistory{}
	}
	return history
}

func (a *Analyzer) loadPrevOutputLength() int {
	var prev ResponseAnalysis
	if err := statefile.Load(a.path(responseAnalysisFile), &prev); err != nil {
		return 0
	}
	return prev.OutputLength
}

func (a *Analyzer) path(name string) string {
	return filepath.Join(a.Dir, name)
}

func (a *Analyzer) logPath(loop int) string {
	return filepath.Join(a.Dir, "logs", "loop-"+strconv.Itoa(loop)+".log")
}
