package statefile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	want := sample{Name: "loop", Count: 3}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var got sample
	if err := Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLoadMissingReturnsErrNotFound(t *testing.T) {
	dir := t.TempDir()
	var got sample
	err := Load(filepath.Join(dir, "missing.json"), &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadCorruptReturnsErrNotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	var got sample
	err := Load(path, &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for corrupt JSON, got %v", err)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := Save(path, sample{Name: "x"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly 1 file in dir after Save, got %d", len(entries))
	}
}

func TestRemoveMissingIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	if err := Remove(filepath.Join(dir, "missing.json")); err != nil {
		t.Errorf("Remove on missing file should succeed, got %v", err)
	}
}

func TestRetryOnceSucceedsOnSecondAttempt(t *testing.T) {
	attempts := 0
	err := RetryOnce(func() error {
		attempts++
		if attempts == 1 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Errorf("expected success on retry, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryOnceFailsAfterTwoAttempts(t *testing.T) {
	attempts := 0
	err := RetryOnce(func() error {
		attempts++
		return errors.New("persistent")
	})
	if err == nil {
		t.Error("expected error after both attempts fail")
	}
	if attempts != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", attempts)
	}
}
