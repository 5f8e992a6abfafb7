package evidence

import (
	"os"
	"path/filepath"
)

// testRunner pairs a detected ecosystem with the command used to run its
// test suite.
type testRunner struct {
	name string
	cmd  []string
}

// detectTestRunner auto-detects a test runner by presence of manifest
// files, in a fixed priority order. Only canonical manifest names are
// checked; ecosystem-specific lockfile variants are not special-cased.
func detectTestRunner(dir string) (testRunner, bool) {
	switch {
	case exists(dir, "go.mod"):
		return testRunner{name: "go", cmd: []string{"go", "test", "./..."}}, true
	case exists(dir, "package.json"):
		return testRunner{name: "node", cmd: []string{"npm", "test"}}, true
	case exists(dir, "Cargo.toml"):
		return testRunner{name: "rust", cmd: []string{"cargo", "test"}}, true
	case exists(dir, "requirements.txt") || exists(dir, "pyproject.toml"):
		return testRunner{name: "python", cmd: []string{"pytest"}}, true
	default:
		return testRunner{}, false
	}
}

// cliEntryPoint is a detected CLI binary/module to run `--help` against.
type cliEntryPoint struct {
	name string
	cmd  []string
}

// detectCLIEntryPoint looks for a project-declared CLI entry point. For Go
// projects it takes the first cmd/<name> package directory; for Node
// projects any package.json counts as declaring one — its "bin" field is
// not read, and the binary name is not parsed out of the manifest.
func detectCLIEntryPoint(dir string) (cliEntryPoint, bool) {
	if exists(dir, "go.mod") {
		cmdDir := filepath.Join(dir, "cmd")
		entries, err := os.ReadDir(cmdDir)
		if err == nil {
			for _, e := range entries {
				if e.IsDir() {
					return cliEntryPoint{name: e.Name(), cmd: []string{"go", "run", "./cmd/" + e.Name()}}, true
				}
			}
		}
	}
	if exists(dir, "package.json") {
		return cliEntryPoint{name: "npm", cmd: []string{"npx", "--no-install", "."}}, true
	}
	return cliEntryPoint{}, false
}

func exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// docDirCandidates are the directory names checked for markdown
// documentation.
var docDirCandidates = []string{"docs", "documentation"}

// fixPlanCandidates are the filenames checked for the fix-plan document.
var fixPlanCandidates = []string{"FIX_PLAN.md", "fix-plan.md", "FIXPLAN.md"}
