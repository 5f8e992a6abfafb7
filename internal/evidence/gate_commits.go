package evidence

import (
	"time"

	"github.com/ralphloop/ralphloop/internal/git"
)

func (c *Collector) gateCommitsMade() GateRecord {
	now := time.Now().UTC()

	if !git.IsRepo(c.Dir) {
		return GateRecord{Status: StatusSkipped, VerifiedAt: now, Evidence: map[string]any{
			"reason": "not a version-controlled tree",
		}}
	}

	count, err := git.CommitsSince(c.Dir, c.SessionCreatedAt)
	if err != nil {
		return GateRecord{Status: StatusFailed, VerifiedAt: now, Evidence: map[string]any{
			"error": err.Error(),
		}}
	}

	pushed, pushErr := git.HasUnpushedCommits(c.Dir)
	evidence := map[string]any{
		"commits_since_session_start": count,
	}
	if pushErr == nil {
		evidence["has_unpushed_commits"] = pushed
	}

	status := StatusFailed
	if count >= 1 {
		status = StatusVerified
	}

	return GateRecord{Status: status, VerifiedAt: now, Evidence: evidence}
}
