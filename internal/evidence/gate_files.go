package evidence

import (
	"time"

	"github.com/ralphloop/ralphloop/internal/git"
)

func (c *Collector) gateFilesModified() GateRecord {
	now := time.Now().UTC()

	if !git.IsRepo(c.Dir) {
		return GateRecord{Status: StatusSkipped, VerifiedAt: now, Evidence: map[string]any{
			"reason": "not a version-controlled tree",
		}}
	}

	files, err := git.ChangedFiles(c.Dir)
	if err != nil {
		return GateRecord{Status: StatusFailed, VerifiedAt: now, Evidence: map[string]any{
			"error": err.Error(),
		}}
	}

	status := StatusFailed
	if len(files) >= 1 {
		status = StatusVerified
	}

	return GateRecord{
		Status:     status,
		VerifiedAt: now,
		Evidence: map[string]any{
			"changed_files": len(files),
		},
	}
}
