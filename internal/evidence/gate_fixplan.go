package evidence

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	checkedBoxPattern   = regexp.MustCompile(`(?m)^\s*- \[x\]`)
	uncheckedBoxPattern = regexp.MustCompile(`(?m)^\s*- \[ \]\s*(.*)$`)
)

func (c *Collector) gateFixPlanComplete() GateRecord {
	now := time.Now().UTC()

	var path string
	var content []byte
	for _, candidate := range fixPlanCandidates {
		p := filepath.Join(c.Dir, candidate)
		data, err := os.ReadFile(p)
		if err == nil {
			path, content = p, data
			break
		}
	}
	if path == "" {
		return GateRecord{Status: StatusSkipped, VerifiedAt: now, Evidence: map[string]any{
			"reason": "no fix-plan document found",
		}}
	}

	text := string(content)
	checked := checkedBoxPattern.FindAllString(text, -1)
	uncheckedMatches := uncheckedBoxPattern.FindAllStringSubmatch(text, -1)
	total := len(checked) + len(uncheckedMatches)

	if total == 0 {
		return GateRecord{Status: StatusSkipped, VerifiedAt: now, Evidence: map[string]any{
			"reason": "fix-plan document has no checkbox lines",
			"path":   filepath.Base(path),
		}}
	}

	percent := float64(len(checked)) / float64(total) * 100

	if len(uncheckedMatches) == 0 {
		return GateRecord{
			Status:     StatusVerified,
			VerifiedAt: now,
			Evidence: map[string]any{
				"path":                filepath.Base(path),
				"completion_percent":  percent,
				"total_items":         total,
				"completed_items":     len(checked),
			},
		}
	}

	var uncompleted []string
	for _, m := range uncheckedMatches {
		uncompleted = append(uncompleted, strings.TrimSpace(m[1]))
	}

	return GateRecord{
		Status:     StatusFailed,
		VerifiedAt: now,
		Evidence: map[string]any{
			"path":               filepath.Base(path),
			"completion_percent": percent,
			"total_items":        total,
			"completed_items":    len(checked),
			"uncompleted_items":  uncompleted,
		},
	}
}
