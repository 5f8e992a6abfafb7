package agent

import (
	"context"
	"path/filepath"
	"time"

	"github.com/ralphloop/ralphloop/internal/statefile"
)

const progressFile = "progress.json"

// tickInterval is the progress-file cadence.
const tickInterval = 2 * time.Second

// tailBytes bounds how much of the running output progress.json embeds.
const tailBytes = 2000

// Progress is the persisted record at progress.json.
type Progress struct {
	Status         string `json:"status"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	LastOutput     string `json:"last_output"`
}

// runProgressWriter polls buf's tail and writes progress.json at
// tickInterval cadence until ctx is cancelled, at which point it writes
// a final idle snapshot before returning. It is the one background task
// that runs concurrently with the main loop, and it is always cancelled
// deterministically by its caller — never self-terminating on its own
// schedule.
func runProgressWriter(ctx context.Context, dir string, startedAt time.Time, buf *syncBuffer) error {
	path := filepath.Join(dir, progressFile)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	write := func(status string) {
		_ = statefile.Save(path, Progress{
			Status:         status,
			ElapsedSeconds: int(time.Since(startedAt).Seconds()),
			LastOutput:     buf.Tail(tailBytes),
		})
	}

	write("executing")
	for {
		select {
		case <-ctx.Done():
			write("idle")
			return nil
		case <-ticker.C:
			write("executing")
		}
	}
}
