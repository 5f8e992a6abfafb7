package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ralphloop/ralphloop/internal/statefile"
)

const pendingContextFile = ".ralph_pending_context"

// BuildPrompt assembles the text fed to the agent's stdin for one loop:
// the fixed instruction file content, plus any pending mid-loop context
// added via `ralphloop context add`.
func BuildPrompt(dir string, loop int, instructions string, pendingContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Loop iteration %d\n\n", loop)
	if pendingContext != "" {
		b.WriteString("## Additional context (added mid-loop)\n\n")
		b.WriteString(pendingContext)
		b.WriteString("\n\n---\n\n")
	}
	b.WriteString(instructions)
	return b.String()
}

// LoadPendingContext reads and returns any context queued for the next
// loop, or "" if none is pending.
func LoadPendingContext(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, pendingContextFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveContext appends text to the pending-context file, to be consumed
// and cleared on the next loop.
func SaveContext(dir string, text string) error {
	path := filepath.Join(dir, pendingContextFile)
	existing := LoadPendingContext(dir)
	content := text
	if existing != "" {
		content = existing + "\n\n" + text
	}
	return statefile.RetryOnce(func() error {
		return os.WriteFile(path, []byte(content), 0o644)
	})
}

// ClearContext removes any pending context file.
func ClearContext(dir string) error {
	return statefile.Remove(filepath.Join(dir, pendingContextFile))
}
