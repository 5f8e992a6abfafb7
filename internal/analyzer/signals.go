package analyzer

import (
	"regexp"
	"strings"
)

var completionKeywords = []string{
	"complete", "finished", "done", "ready for review",
}

// completionWindowFraction is the trailing slice of the output that
// completion keywords are searched in. Matching only the tail avoids
// false positives from early planning text like "once this is done,
// I'll move on to the next file."
const completionWindowFraction = 0.2

func hasCompletionKeyword(output string) bool {
	if output == "" {
		return false
	}
	windowStart := int(float64(len(output)) * (1 - completionWindowFraction))
	tail := strings.ToLower(output[windowStart:])
	for _, kw := range completionKeywords {
		if strings.Contains(tail, kw) {
			return true
		}
	}
	return false
}

// workVerbs mark a line as evidence of file-modifying work, which rules
// out the test-only classification.
var workVerbs = []string{"created", "wrote", "modified", "edited", "deleted", "added"}

// testLinePatterns mark a line as a test-execution indicator.
var testLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*running tests\b`),
	regexp.MustCompile(`(?i)^\s*pass\b`),
	regexp.MustCompile(`(?i)^\s*fail\b`),
	regexp.MustCompile(`(?i)\bpassing\b`),
	regexp.MustCompile(`(?i)\bfailing\b`),
	regexp.MustCompile(`(?i)\b(go test|pytest|cargo test|npm test|jest|bun test)\b`),
}

// isTestOnly reports whether every work-indicating line in output is a
// test-execution line and none is a file-modification line. Output with
// no work-indicating lines at all is not test-only — there is simply no
// work to classify.
func isTestOnly(output string) bool {
	sawTestLine := false
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		isWork := false
		for _, verb := range workVerbs {
			if strings.Contains(lower, verb) {
				isWork = true
				break
			}
		}
		if isWork {
			return false
		}

		for _, pattern := range testLinePatterns {
			if pattern.MatchString(line) {
				sawTestLine = true
				break
			}
		}
	}
	return sawTestLine
}

// Confidence scoring weights.
//
// Policy decision (open question, resolved): the +100 structured-block
// weight is awarded only when the block also declares completion
// (STATUS: COMPLETE or EXIT_SIGNAL: true), not on the sentinel block's
// mere presence. A literal unconditional +100 would make exit_signal
// true on every loop where the agent emits the block at all, including
// an IN_PROGRESS/BLOCKED block carrying EXIT_SIGNAL: false — which would
// make that field meaningless. A structured block that declares
// completion is enough on its own to cross the exit threshold; the rest
// are additive corroborating signals for unstructured output.
const (
	weightStructuredBlock    = 100
	weightCompletionKeyword  = 20
	weightShortAfterLong     = 20
	weightTestOnly           = 10
	exitSignalThreshold      = 100
	// shortAfterLongRatio bounds how much shorter than the previous
	// loop's output counts as "trailing off" — the agent running out of
	// things to say is itself a weak completion signal.
	shortAfterLongRatio = 0.5
	shortAfterLongFloor = 200
)

func shortOutputAfterLong(outputLength, prevOutputLength int) bool {
	if prevOutputLength < shortAfterLongFloor {
		return false
	}
	return outputLength < int(float64(prevOutputLength)*shortAfterLongRatio)
}

func confidenceScore(structuredPresent, completionKeyword, testOnly, shortAfterLong bool) int {
	score := 0
	if structuredPresent {
		score += weightStructuredBlock
	}
	if completionKeyword {
		score += weightCompletionKeyword
	}
	if shortAfterLong {
		score += weightShortAfterLong
	}
	if testOnly {
		score += weightTestOnly
	}
	return score
}
