// Package loopctl implements the Loop Controller: it rate-limits agent
// invocations per wall-clock hour, runs the agent, dispatches the
// analyzer/circuit-breaker/evidence-collector, publishes status, and
// decides whether to continue, halt, or exit.
package loopctl

import (
	"path/filepath"
	"time"

	"github.com/ralphloop/ralphloop/internal/statefile"
)

const (
	callCountFile = ".call_count"
	lastResetFile = ".last_reset"
)

// rateLimitState is the persisted hour-bucket counter.
type rateLimitState struct {
	CallsMadeThisHour int    `json:"calls_made_this_hour"`
	HourBucket        string `json:"hour_bucket"`
}

type rateLimiter struct {
	dir string
}

func newRateLimiter(dir string) *rateLimiter {
	return &rateLimiter{dir: dir}
}

func currentHourBucket(now time.Time) string {
	return now.UTC().Format("2006-01-02T15")
}

// nextHourBoundary returns the next wall-clock hour boundary strictly
// after now.
func nextHourBoundary(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, time.UTC).Add(time.Hour)
}

func (r *rateLimiter) load() rateLimitState {
	var count struct {
		CallsMadeThisHour int `json:"calls_made_this_hour"`
	}
	_ = statefile.Load(filepath.Join(r.dir, callCountFile), &count)

	var reset struct {
		HourBucket string `json:"hour_bucket"`
	}
	_ = statefile.Load(filepath.Join(r.dir, lastResetFile), &reset)

	return rateLimitState{CallsMadeThisHour: count.CallsMadeThisHour, HourBucket: reset.HourBucket}
}

func (r *rateLimiter) save(s rateLimitState) error {
	if err := statefile.Save(filepath.Join(r.dir, callCountFile), struct {
		CallsMadeThisHour int `json:"calls_made_this_hour"`
	}{CallsMadeThisHour: s.CallsMadeThisHour}); err != nil {
		return err
	}
	return statefile.Save(filepath.Join(r.dir, lastResetFile), struct {
		HourBucket string `json:"hour_bucket"`
	}{HourBucket: s.HourBucket})
}

// resetIfNewHour zeroes the counter when the wall-clock hour bucket has
// rolled over since the last reset.
func (r *rateLimiter) resetIfNewHour(now time.Time) (rateLimitState, error) {
	s := r.load()
	bucket := currentHourBucket(now)
	if s.HourBucket != bucket {
		s = rateLimitState{CallsMadeThisHour: 0, HourBucket: bucket}
		if err := r.save(s); err != nil {
			return s, err
		}
	}
	return s, nil
}

// recordCall increments the counter for the current hour bucket.
func (r *rateLimiter) recordCall(now time.Time) error {
	s, err := r.resetIfNewHour(now)
	if err != nil {
		return err
	}
	s.CallsMadeThisHour++
	return r.save(s)
}
