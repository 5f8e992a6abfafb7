package circuit

// apply is the pure transition function: given the current persisted
// state and one loop's result, it returns the next state and, if a
// transition actually fired, the reason text for the history journal.
//
// Policy decision: consecutive_same_error is tracked independently of
// the no-progress/error counters. A loop that
// both modifies files and repeats the previous loop's error fingerprint
// still advances consecutive_same_error — a persistent, recurring error
// alongside incidental file churn is still worth tripping the breaker
// over, since the recurrence itself is the stagnation signal, not the
// absence of file changes.
func apply(current State, result LoopResult) (next State, reason string, transitioned bool) {
	next = current

	fingerprint := Fingerprint(result.ErrorLine)
	if result.HadError && fingerprint != "" {
		if fingerprint == current.LastErrorFingerprint {
			next.ConsecutiveSameError = current.ConsecutiveSameError + 1
		} else {
			next.ConsecutiveSameError = 1
		}
		next.LastErrorFingerprint = fingerprint
	} else {
		next.ConsecutiveSameError = 0
		next.LastErrorFingerprint = ""
	}

	if result.HadError {
		next.ErrorCount = current.ErrorCount + 1
	} else {
		next.ErrorCount = 0
	}

	noProgress := result.FilesChanged == 0 && !result.HadError
	if noProgress {
		next.NoProgressCount = current.NoProgressCount + 1
	} else {
		next.NoProgressCount = 0
	}

	// Highest priority: a persistent identical error opens the breaker
	// from any state.
	if next.ConsecutiveSameError >= consecutiveSameErrorThreshold && current.Phase != Open {
		next.Phase = Open
		return next, "consecutive_same_error reached threshold", true
	}

	switch current.Phase {
	case HalfOpen:
		if result.FilesChanged >= 1 {
			next.Phase = Closed
			next.NoProgressCount = 0
			return next, "progress made while half-open", true
		}
		if next.NoProgressCount >= noProgressOpenThreshold {
			next.Phase = Open
			return next, "no_progress_count reached threshold while half-open", true
		}

	case Closed:
		if next.NoProgressCount >= noProgressHalfOpenThreshold {
			next.Phase = HalfOpen
			return next, "no_progress_count reached threshold", true
		}

	case Open:
		// OPEN is terminal for the run; only an explicit reset leaves it.
	}

	return next, "", false
}
