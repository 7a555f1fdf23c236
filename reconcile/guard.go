package reconcile

import "sync"

// guardState is the single-shot state machine protecting order creation:
// idle → processing → done. The transition to processing happens synchronously
// before any network or storage call, which closes the window where two
// near-simultaneous invocations could both observe "not yet processed".
type guardState int

const (
	guardIdle guardState = iota
	guardProcessing
	guardDone
)

type singleShot struct {
	lock  sync.Mutex
	state guardState
}

// begin attempts the idle → processing transition. It returns false if the
// guard has already been claimed, in which case the caller must no-op.
func (s *singleShot) begin() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state != guardIdle {
		return false
	}
	s.state = guardProcessing
	return true
}

// finish marks the guard done. The guard never returns to idle: a reconciler
// instance handles at most one redirect return, success or failure.
func (s *singleShot) finish() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.state = guardDone
}
