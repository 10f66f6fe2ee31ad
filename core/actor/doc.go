// Package actor implements an in-process actor runtime built around typed
// addresses and queued closures.
//
// An actor is any Go value. Once spawned it is owned by a single task that
// drains the actor's mailbox one message at a time; nothing else ever
// touches the value. Callers only hold addresses.
//
// # Spawning
//
//	addr, err := actor.Spawn(actor.GoExecutor(ctx), &Counter{value: 1})
//	if err != nil {
//	    return err
//	}
//	defer addr.Release()
//
// Actors may implement [Starter] (runs synchronously in Spawn before any
// message), [Stopper] (teardown, runs once after the mailbox closed) and
// [ErrorHandler] (per-actor failure classification).
//
// # Addresses
//
// [Addr] is a strong, reference-counted handle: Clone adds a reference,
// Release drops one. When the last strong handle is released the actor
// finishes its queued messages and tears down. [WeakAddr] (from Downgrade)
// does not keep the actor alive; sends through it are dropped once no
// strong handle is left. Actors keep a WeakAddr to themselves:
//
//	func (c *Counter) Started(addr *actor.Addr[Counter]) error {
//	    c.self = addr.Downgrade()
//	    return nil
//	}
//
// # Messages
//
// A [Message] is an operation plus captured arguments, run with exclusive
// access to the actor:
//
//	addr.SendMut(actor.NewClosure(
//	    func(ctx context.Context, c *Counter, res *reply.Sender[int]) error {
//	        c.value++
//	        return res.Send(c.value)
//	    },
//	    tx,
//	))
//
// Messages run strictly in enqueue order. An operation may block on nested
// work; the next message starts only after it returned.
//
// # Failures
//
// A failed operation is logged and the actor continues with the next
// message. It terminates instead when the actor's [ErrorHandler] says so,
// when the message was wrapped with [Critical], when the error wraps
// [ErrTerminate] (see [Terminate]), or when [Options].ErrorPolicy is
// [StopOnError]. Messages still queued at termination are dropped and their
// reply senders resolve as disconnected. Teardown always runs exactly once.
//
// # Executors
//
// Tasks run on an [Executor]. [GoExecutor] starts a goroutine per actor;
// [Scheduler] additionally caps concurrency and can wait for all of its
// actors to finish.
package actor
