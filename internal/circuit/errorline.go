package circuit

import "strings"

// errorPatterns mark a line as evidence of a tool/test/runtime failure.
var errorPatterns = []string{
	"error:", "failed:", "exception:",
	"typeerror", "syntaxerror", "referenceerror",
}

func isErrorLine(lower string) bool {
	for _, p := range errorPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return strings.Contains(lower, "test") && strings.Contains(lower, "fail")
}

// ExtractLastErrorLine returns the last non-empty line of output that
// matches an error pattern, or "" if none does. The Loop Controller
// feeds this into RecordLoopResult for fingerprinting.
func ExtractLastErrorLine(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if isErrorLine(strings.ToLower(line)) {
			return line
		}
	}
	return ""
}
