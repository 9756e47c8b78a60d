package query

import (
	"context"
	"time"
)

// MaxAttempts is the total delivery budget: 1 initial attempt + 3 retries.
const MaxAttempts = 4

// Sleeper abstracts backoff waits so tests can run without real timers.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Backoff returns the unconditional wait before attempt k (0-indexed):
// no wait before attempt 0, then 2s, 4s, 8s. Not jittered.
func Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}

// phase is the retry loop's position in its lifecycle.
type phase int

const (
	phasePending phase = iota
	phaseRetrying
	phaseSucceeded
	phaseFailed
)

// outcomeKind classifies a single attempt's result.
type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRateLimited
	outcomeEmptyContent
	outcomeTerminal
)

// attemptOutcome is one attempt's classified result.
type attemptOutcome struct {
	kind outcomeKind
	err  *Error // set for outcomeTerminal
}

// loopState tracks the retry loop between attempts.
type loopState struct {
	phase   phase
	attempt int    // attempt about to run (0-indexed)
	err     *Error // terminal error when phase == phaseFailed
}

// step is the pure transition function driving the retry loop: given the
// state before an attempt and that attempt's outcome, it returns the state
// for the next iteration. The caller owns sleeping and I/O.
func step(st loopState, out attemptOutcome) loopState {
	switch out.kind {
	case outcomeSuccess:
		return loopState{phase: phaseSucceeded, attempt: st.attempt}

	case outcomeTerminal:
		// Non-429 HTTP failures abandon the remaining budget immediately.
		return loopState{phase: phaseFailed, attempt: st.attempt, err: out.err}

	case outcomeRateLimited:
		if st.attempt >= MaxAttempts-1 {
			return loopState{
				phase:   phaseFailed,
				attempt: st.attempt,
				err:     newError(KindRateLimited, "rate limited after %d attempts", MaxAttempts),
			}
		}
		return loopState{phase: phaseRetrying, attempt: st.attempt + 1}

	case outcomeEmptyContent:
		if st.attempt >= MaxAttempts-1 {
			return loopState{
				phase:   phaseFailed,
				attempt: st.attempt,
				err:     newError(KindEmptyContent, "empty content in response after %d attempts", MaxAttempts),
			}
		}
		return loopState{phase: phaseRetrying, attempt: st.attempt + 1}
	}

	return loopState{
		phase:   phaseFailed,
		attempt: st.attempt,
		err:     newError(KindTransport, "unknown attempt outcome"),
	}
}

func (s loopState) done() bool {
	return s.phase == phaseSucceeded || s.phase == phaseFailed
}
