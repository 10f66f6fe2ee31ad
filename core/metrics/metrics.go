// Package metrics holds the backend-agnostic metric primitives used by the
// runtime's instrumentation interfaces. Concrete backends live under
// adapters/ (see adapters/prometheus).
package metrics

import "time"

// Timer measures the duration of one operation. Call ObserveDuration when
// the operation completes:
//
//	defer m.MessageDuration(op).ObserveDuration()
type Timer interface {
	ObserveDuration()
}

// TimerFunc adapts a plain function into a Timer.
type TimerFunc func()

func (f TimerFunc) ObserveDuration() { f() }

// Since returns a Timer that reports the time elapsed since now to observe.
func Since(observe func(time.Duration)) Timer {
	start := time.Now()
	return TimerFunc(func() { observe(time.Since(start)) })
}
