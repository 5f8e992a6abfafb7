package evidence

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func gitCommand(dir string, args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	return cmd
}

func initGitRepo(t *testing.T, dir string) {
	t.Helper()
	run := func(args ...string) {
		if err := gitCommand(dir, args...).Run(); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}
	run("init", "-q")
	run("config", "user.email", "loop@example.com")
	run("config", "user.name", "loop")
}

func TestRunAlwaysWritesOverallStatus(t *testing.T) {
	dir := t.TempDir()
	c := &Collector{Dir: dir, SkipTests: true, SkipCLI: true}

	doc, err := c.Run(1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if doc.OverallStatus.GatesVerified+doc.OverallStatus.GatesFailed+doc.OverallStatus.GatesSkipped != len(GateOrder) {
		t.Errorf("gate tally does not sum to %d gates: %+v", len(GateOrder), doc.OverallStatus)
	}

	persisted := c.Status()
	if persisted.OverallStatus != doc.OverallStatus {
		t.Errorf("persisted overall_status %+v differs from returned %+v", persisted.OverallStatus, doc.OverallStatus)
	}
}

func TestExitAllowedIffNoGatesFailed(t *testing.T) {
	dir := t.TempDir()
	c := &Collector{Dir: dir, SkipTests: true, SkipCLI: true}

	doc, err := c.Run(1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantAllowed := doc.OverallStatus.GatesFailed == 0
	if doc.OverallStatus.ExitAllowed != wantAllowed {
		t.Errorf("ExitAllowed = %t, want %t (gates_failed=%d)",
			doc.OverallStatus.ExitAllowed, wantAllowed, doc.OverallStatus.GatesFailed)
	}
}

func TestRunIsIdempotentWithNoRepositoryChanges(t *testing.T) {
	dir := t.TempDir()
	c := &Collector{Dir: dir, SkipTests: true, SkipCLI: true}

	first, err := c.Run(1)
	if err != nil {
		t.Fatalf("Run(1): %v", err)
	}
	second, err := c.Run(2)
	if err != nil {
		t.Fatalf("Run(2): %v", err)
	}

	for _, name := range GateOrder {
		a, b := first.VerificationGates[name], second.VerificationGates[name]
		if a.Status != b.Status {
			t.Errorf("gate %s status changed across idempotent runs: %s -> %s", name, a.Status, b.Status)
		}
	}
}

func TestFixPlanCompleteGateReportsUncompletedItems(t *testing.T) {
	dir := t.TempDir()
	content := "# Fix plan\n- [x] done item\n- [ ] pending item\n"
	if err := os.WriteFile(filepath.Join(dir, "FIX_PLAN.md"), []byte(content), 0o644); err != nil {
		t.Fatalf("write fix plan: %v", err)
	}

	c := &Collector{Dir: dir}
	rec := c.gateFixPlanComplete()
	if rec.Status != StatusFailed {
		t.Fatalf("Status = %s, want FAILED", rec.Status)
	}
	uncompleted, ok := rec.Evidence["uncompleted_items"].([]string)
	if !ok || len(uncompleted) != 1 {
		t.Errorf("uncompleted_items = %v, want one entry", rec.Evidence["uncompleted_items"])
	}
}

func TestFixPlanCompleteGateVerifiedWhenAllChecked(t *testing.T) {
	dir := t.TempDir()
	content := "- [x] one\n- [x] two\n"
	if err := os.WriteFile(filepath.Join(dir, "FIX_PLAN.md"), []byte(content), 0o644); err != nil {
		t.Fatalf("write fix plan: %v", err)
	}

	c := &Collector{Dir: dir}
	rec := c.gateFixPlanComplete()
	if rec.Status != StatusVerified {
		t.Fatalf("Status = %s, want VERIFIED", rec.Status)
	}
}

func TestFixPlanCompleteGateSkippedWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	c := &Collector{Dir: dir}
	rec := c.gateFixPlanComplete()
	if rec.Status != StatusSkipped {
		t.Fatalf("Status = %s, want SKIPPED when no fix-plan file exists", rec.Status)
	}
}

func TestDocumentationExistsGateFindsDocsDirMarkdown(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "docs"), 0o755); err != nil {
		t.Fatalf("mkdir docs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "docs", "guide.md"), []byte("# guide"), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	c := &Collector{Dir: dir}
	rec := c.gateDocumentationExists()
	if rec.Status != StatusVerified {
		t.Fatalf("Status = %s, want VERIFIED", rec.Status)
	}
}

func TestCommitsMadeGateCountsCommitsSinceSessionStart(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)

	sessionStart := time.Now().UTC()
	time.Sleep(1100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := gitCommand(dir, "add", "-A").Run(); err != nil {
		t.Fatalf("git add: %v", err)
	}
	if err := gitCommand(dir, "commit", "-q", "-m", "work").Run(); err != nil {
		t.Fatalf("git commit: %v", err)
	}

	c := &Collector{Dir: dir, SessionCreatedAt: sessionStart}
	rec := c.gateCommitsMade()
	if rec.Status != StatusVerified {
		t.Fatalf("Status = %s, want VERIFIED after a commit since session start", rec.Status)
	}
}
