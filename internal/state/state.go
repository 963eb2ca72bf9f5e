// Package state holds the per-invocation process state of m2p-cli: a
// parse-once argument snapshot and the exit status cell.
package state

import "sync"

// Lazy memoizes the first result of a constructor. Later calls return the
// same value and error without running it again.
type Lazy[T any] struct {
	once sync.Once
	fn   func() (T, error)
	val  T
	err  error
}

// NewLazy returns a Lazy that runs fn on first Get.
func NewLazy[T any](fn func() (T, error)) *Lazy[T] {
	return &Lazy[T]{fn: fn}
}

// Get returns the memoized value, constructing it on first use.
func (l *Lazy[T]) Get() (T, error) {
	l.once.Do(func() {
		l.val, l.err = l.fn()
		l.fn = nil
	})
	return l.val, l.err
}

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// ExitStatus starts out successful. It is owned by one execution context and
// is not safe for concurrent use.
type ExitStatus struct {
	failed bool
}

// MarkFailed records a failure. Repeated calls have no further effect.
func (s *ExitStatus) MarkFailed() { s.failed = true }

// Failed reports whether MarkFailed was called.
func (s *ExitStatus) Failed() bool { return s.failed }

// Code returns the process exit code for the status.
func (s *ExitStatus) Code() int {
	if s.failed {
		return ExitFailure
	}
	return ExitSuccess
}
