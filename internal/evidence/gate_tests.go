package evidence

import (
	"os/exec"
	"regexp"
	"time"
)

var testCountPattern = regexp.MustCompile(`(?i)(\d+)\s*(passed|passing|failed|failing)`)

func (c *Collector) gateTestsPassed() GateRecord {
	if c.SkipTests {
		return GateRecord{Status: StatusSkipped, VerifiedAt: time.Now().UTC(), Evidence: map[string]any{
			"reason": "skip_tests flag set",
		}}
	}

	runner, found := detectTestRunner(c.Dir)
	if !found {
		return GateRecord{Status: StatusSkipped, VerifiedAt: time.Now().UTC(), Evidence: map[string]any{
			"reason": "no test runner detected",
		}}
	}

	cmd := exec.Command(runner.cmd[0], runner.cmd[1:]...)
	cmd.Dir = c.Dir
	output, runErr := cmd.CombinedOutput()

	counts := map[string]any{}
	for _, m := range testCountPattern.FindAllStringSubmatch(string(output), -1) {
		counts[m[2]] = m[1]
	}

	status := StatusVerified
	if runErr != nil {
		status = StatusFailed
	}

	return GateRecord{
		Status:     status,
		VerifiedAt: time.Now().UTC(),
		Evidence: map[string]any{
			"runner": runner.name,
			"counts": counts,
		},
	}
}
