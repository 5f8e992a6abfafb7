package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInvokeCapturesOutputAndExitCode(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "loop.log")

	result, err := Invoke(context.Background(), Options{
		Command: "sh",
		Args:    []string{"-c", "echo hello; exit 0"},
		Prompt:  "do work",
		WorkDir: dir,
		LogPath: logPath,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if result.HadError {
		t.Error("HadError should be false on exit code 0")
	}
	if result.TimedOut {
		t.Error("TimedOut should be false")
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) == "" {
		t.Error("expected non-empty log file")
	}
}

func TestInvokeReportsNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	result, err := Invoke(context.Background(), Options{
		Command: "sh",
		Args:    []string{"-c", "exit 3"},
		Prompt:  "",
		WorkDir: dir,
		LogPath: filepath.Join(dir, "loop.log"),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if !result.HadError {
		t.Error("HadError should be true on non-zero exit")
	}
}

func TestInvokeTimesOut(t *testing.T) {
	dir := t.TempDir()
	result, err := Invoke(context.Background(), Options{
		Command: "sh",
		Args:    []string{"-c", "sleep 5"},
		WorkDir: dir,
		LogPath: filepath.Join(dir, "loop.log"),
		Timeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected TimedOut true")
	}
}

func TestInvokeLaunchFailureReturnsError(t *testing.T) {
	dir := t.TempDir()
	_, err := Invoke(context.Background(), Options{
		Command: filepath.Join(dir, "does-not-exist-binary"),
		WorkDir: dir,
		LogPath: filepath.Join(dir, "loop.log"),
		Timeout: time.Second,
	})
	if err == nil {
		t.Fatal("expected an error for an unlaunchable binary")
	}
}

func TestBuildPromptIncludesPendingContext(t *testing.T) {
	prompt := BuildPrompt("/tmp/x", 3, "Work the next unit.", "hint: check the config loader")
	if !strings.Contains(prompt, "hint: check the config loader") {
		t.Error("expected pending context to be embedded in the prompt")
	}
	if !strings.Contains(prompt, "Work the next unit.") {
		t.Error("expected base instructions to be embedded in the prompt")
	}
	if !strings.Contains(prompt, "Loop iteration 3") {
		t.Error("expected the loop number to appear in the prompt")
	}
}

func TestBuildPromptOmitsContextSectionWhenEmpty(t *testing.T) {
	prompt := BuildPrompt("/tmp/x", 1, "Work.", "")
	if strings.Contains(prompt, "Additional context") {
		t.Error("did not expect a context section when no pending context is queued")
	}
}

func TestSaveLoadClearContext(t *testing.T) {
	dir := t.TempDir()

	if got := LoadPendingContext(dir); got != "" {
		t.Fatalf("expected no pending context initially, got %q", got)
	}

	if err := SaveContext(dir, "first note"); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}
	if got := LoadPendingContext(dir); got != "first note" {
		t.Errorf("LoadPendingContext = %q, want %q", got, "first note")
	}

	if err := SaveContext(dir, "second note"); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}
	got := LoadPendingContext(dir)
	if !strings.Contains(got, "first note") || !strings.Contains(got, "second note") {
		t.Errorf("expected both notes to accumulate, got %q", got)
	}

	if err := ClearContext(dir); err != nil {
		t.Fatalf("ClearContext: %v", err)
	}
	if got := LoadPendingContext(dir); got != "" {
		t.Errorf("expected empty context after ClearContext, got %q", got)
	}
}
