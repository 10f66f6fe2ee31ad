package actor

import "github.com/codewandler/actr-go/core/metrics"

// ActorMetrics defines the instrumentation hooks of the runtime.
// All methods are thread-safe.
type ActorMetrics interface {
	// Operations
	MessageDuration(op string) metrics.Timer
	MessageProcessed(op string, mode string, success bool)
	MessagePanic(op string)
	MessageDropped(op string)

	// Mailbox
	MailboxDepth(actorID string, depth int)
	// MailboxClosed is called once per actor when its mailbox closes.
	MailboxClosed(actorID string)

	// Lifecycle
	ActorStarted(actorType string)
	ActorStopped(actorType string)

	// Scheduler
	SchedulerInflight(count int)
	SchedulerTaskDuration() metrics.Timer
	SchedulerTaskCompleted(success bool)
}

type nopActorMetrics struct{}

func (nopActorMetrics) MessageDuration(string) metrics.Timer  { return metrics.NopTimer() }
func (nopActorMetrics) MessageProcessed(string, string, bool) {}
func (nopActorMetrics) MessagePanic(string)                   {}
func (nopActorMetrics) MessageDropped(string)                 {}

func (nopActorMetrics) MailboxDepth(string, int) {}
func (nopActorMetrics) MailboxClosed(string)     {}

func (nopActorMetrics) ActorStarted(string) {}
func (nopActorMetrics) ActorStopped(string) {}

func (nopActorMetrics) SchedulerInflight(int)                {}
func (nopActorMetrics) SchedulerTaskDuration() metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) SchedulerTaskCompleted(bool)          {}

// NopActorMetrics returns a no-op ActorMetrics implementation.
func NopActorMetrics() ActorMetrics { return nopActorMetrics{} }
