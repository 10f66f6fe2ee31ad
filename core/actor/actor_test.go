package actor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/actr-go/core/reply"
)

type recorder struct {
	self     WeakAddr[recorder]
	events   []string
	startErr error
	onStart  func(addr *Addr[recorder])
	stopped  atomic.Int32
}

func (r *recorder) Started(addr *Addr[recorder]) error {
	r.self = addr.Downgrade()
	r.events = append(r.events, "started")
	if r.onStart != nil {
		r.onStart(addr)
	}
	return r.startErr
}

func (r *recorder) Stopped() {
	r.events = append(r.events, "stopped")
	r.stopped.Add(1)
}

func record(ev string) Message[recorder] {
	return NewClosure(func(_ context.Context, r *recorder, ev string) error {
		r.events = append(r.events, ev)
		return nil
	}, ev)
}

func fail(err error) Message[recorder] {
	return Func(func(context.Context, *recorder) error { return err })
}

func eventCount(t *testing.T, ref Ref[recorder]) int {
	rx := reply.Call(func(tx *reply.Sender[int]) {
		ref.Send(NewClosure(func(_ context.Context, r *recorder, tx *reply.Sender[int]) error {
			return tx.Send(len(r.events))
		}, tx))
	})
	n, err := rx.Receive(t.Context())
	require.NoError(t, err)
	return n
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout")
	}
}

func newTestOptions() Options {
	return Options{ID: "test"}
}

func TestActor_fifo_and_exclusive(t *testing.T) {
	type state struct {
		perSender map[int][]int
	}

	const (
		senders = 16
		perEach = 50
	)

	var (
		active   atomic.Int32
		overlaps atomic.Int32
	)

	s := &state{perSender: make(map[int][]int)}
	addr, err := SpawnWithOptions(GoExecutor(t.Context()), s, newTestOptions())
	require.NoError(t, err)

	type seq struct{ sender, n int }
	op := func(ctx context.Context, st *state, a seq) error {
		if active.Add(1) != 1 {
			overlaps.Add(1)
		}
		defer active.Add(-1)

		// nested asynchronous work inside the operation
		if a.n%10 == 0 {
			done := make(chan struct{})
			go func() {
				time.Sleep(time.Millisecond)
				close(done)
			}()
			<-done
		}
		st.perSender[a.sender] = append(st.perSender[a.sender], a.n)
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(sender int) {
			defer wg.Done()
			local := addr.Clone()
			defer local.Release()
			for n := 0; n < perEach; n++ {
				assert.True(t, local.SendMut(NewClosure(op, seq{sender, n})))
			}
		}(i)
	}
	wg.Wait()
	addr.Release()
	waitDone(t, addr.Done())

	require.Zero(t, overlaps.Load())
	require.Len(t, s.perSender, senders)
	for sender, got := range s.perSender {
		require.Len(t, got, perEach, "sender %d", sender)
		for i, n := range got {
			require.Equal(t, i, n, "sender %d out of order", sender)
		}
	}
}

func TestActor_strict_order_single_sender(t *testing.T) {
	r := &recorder{}
	addr, err := Spawn(nil, r)
	require.NoError(t, err)

	var want []string
	want = append(want, "started")
	for i := 0; i < 100; i++ {
		ev := fmt.Sprintf("ev-%d", i)
		want = append(want, ev)
		addr.SendMut(record(ev))
	}
	want = append(want, "stopped")

	addr.Release()
	waitDone(t, addr.Done())
	require.Equal(t, want, r.events)
}

func TestActor_started_before_messages(t *testing.T) {
	r := &recorder{
		onStart: func(addr *Addr[recorder]) {
			// enqueued during Started, still runs after Started returned
			addr.SendMut(record("from-started"))
		},
	}
	addr, err := Spawn(nil, r)
	require.NoError(t, err)
	addr.SendMut(record("first"))
	addr.Release()
	waitDone(t, addr.Done())

	require.Equal(t, []string{"started", "from-started", "first", "stopped"}, r.events)
}

func TestActor_teardown_once_after_last_release(t *testing.T) {
	r := &recorder{}
	addr, err := Spawn(nil, r)
	require.NoError(t, err)

	clone := addr.Clone()
	require.Equal(t, addr.ID(), clone.ID())

	gate := make(chan struct{})
	addr.SendMut(Func(func(context.Context, *recorder) error {
		<-gate
		return nil
	}))
	addr.SendMut(record("queued"))

	addr.Release()
	addr.Release() // idempotent
	close(gate)

	require.Equal(t, 2, eventCount(t, clone))
	select {
	case <-clone.Done():
		t.Fatal("actor stopped while a strong handle exists")
	default:
	}

	clone.Release()
	waitDone(t, clone.Done())
	require.EqualValues(t, 1, r.stopped.Load())
	require.Equal(t, []string{"started", "queued", "stopped"}, r.events)
}

func TestActor_release_does_not_interrupt_pending(t *testing.T) {
	r := &recorder{}
	addr, err := Spawn(nil, r)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		addr.SendMut(NewClosure(func(_ context.Context, r *recorder, ev string) error {
			time.Sleep(time.Millisecond)
			r.events = append(r.events, ev)
			return nil
		}, "slow"))
	}
	addr.Release()
	waitDone(t, addr.Done())
	require.Len(t, r.events, 22)
	require.Equal(t, "stopped", r.events[21])
}

func TestActor_weak_after_release(t *testing.T) {
	r := &recorder{}
	addr, err := Spawn(nil, r)
	require.NoError(t, err)

	weak := addr.Downgrade()
	require.True(t, weak.IsAlive())
	require.Equal(t, addr.ID(), weak.ID())
	require.Equal(t, 1, eventCount(t, weak))

	addr.Release()
	waitDone(t, weak.Done())
	require.False(t, weak.IsAlive())

	_, ok := weak.Upgrade()
	require.False(t, ok)

	var sent bool
	rx := reply.Call(func(tx *reply.Sender[int]) {
		require.NotPanics(t, func() {
			sent = weak.SendMut(NewClosure(func(_ context.Context, r *recorder, tx *reply.Sender[int]) error {
				return tx.Send(len(r.events))
			}, tx))
		})
	})
	require.False(t, sent)

	_, err = rx.Receive(t.Context())
	require.ErrorIs(t, err, reply.ErrDisconnected)
	require.EqualValues(t, 1, r.stopped.Load())
}

func TestActor_weak_upgrade(t *testing.T) {
	addr, err := Spawn(nil, &recorder{})
	require.NoError(t, err)

	up, ok := addr.Downgrade().Upgrade()
	require.True(t, ok)

	addr.Release()
	require.Equal(t, 1, eventCount(t, up))

	up.Release()
	waitDone(t, up.Done())
}

func TestActor_zero_weak(t *testing.T) {
	var w WeakAddr[recorder]
	require.False(t, w.SendMut(record("x")))
	require.False(t, w.Send(record("x")))
	require.False(t, w.IsAlive())
	require.Equal(t, "", w.ID())
	waitDone(t, w.Done())
}

func TestAddr_released_handle(t *testing.T) {
	addr, err := Spawn(nil, &recorder{})
	require.NoError(t, err)
	keep := addr.Clone()
	defer keep.Release()

	addr.Release()
	require.Nil(t, addr.Clone())

	rx := reply.Call(func(tx *reply.Sender[int]) {
		require.False(t, addr.SendMut(NewClosure(func(_ context.Context, _ *recorder, tx *reply.Sender[int]) error {
			return tx.Send(1)
		}, tx)))
	})
	_, err = rx.Receive(t.Context())
	require.ErrorIs(t, err, reply.ErrDisconnected)

	var nilAddr *Addr[recorder]
	require.False(t, nilAddr.SendMut(record("x")))
	require.NotPanics(t, nilAddr.Release)
	waitDone(t, nilAddr.Done())
}

func TestAddr_released_by_gc(t *testing.T) {
	r := &recorder{}
	done := func() <-chan struct{} {
		addr, err := Spawn(nil, r)
		require.NoError(t, err)
		return addr.Done()
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	require.EqualValues(t, 1, r.stopped.Load())
}

func TestActor_unreplied_sender_disconnects(t *testing.T) {
	addr, err := Spawn(nil, &recorder{})
	require.NoError(t, err)
	defer addr.Release()

	rx := reply.Call(func(tx *reply.Sender[bool]) {
		addr.SendMut(NewClosure(func(context.Context, *recorder, *reply.Sender[bool]) error {
			return nil
		}, tx))
	})
	_, err = rx.Receive(t.Context())
	require.ErrorIs(t, err, reply.ErrDisconnected)
}

func TestSpawn_start_failed(t *testing.T) {
	var dropped *reply.Receiver[int]
	r := &recorder{
		startErr: errors.New("boom"),
		onStart: func(addr *Addr[recorder]) {
			dropped = reply.Call(func(tx *reply.Sender[int]) {
				addr.SendMut(NewClosure(func(_ context.Context, _ *recorder, tx *reply.Sender[int]) error {
					return tx.Send(1)
				}, tx))
			})
		},
	}

	addr, err := Spawn(nil, r)
	require.Nil(t, addr)
	require.ErrorIs(t, err, ErrStartFailed)
	require.ErrorContains(t, err, "boom")

	var se *SpawnError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "recorder", se.ActorType)

	require.Zero(t, r.stopped.Load())
	_, err = dropped.Receive(t.Context())
	require.ErrorIs(t, err, reply.ErrDisconnected)
	waitDone(t, r.self.Done())
}

func TestSpawn_start_panics(t *testing.T) {
	r := &recorder{onStart: func(*Addr[recorder]) { panic("bad start") }}
	_, err := Spawn(nil, r)
	require.ErrorIs(t, err, ErrStartFailed)
	require.ErrorIs(t, err, ErrPanicked)
	require.Zero(t, r.stopped.Load())
}

func TestSpawn_executor_rejected(t *testing.T) {
	rejecting := ExecutorFunc(func(TaskFunc) error { return errors.New("full") })

	r := &recorder{}
	addr, err := Spawn(rejecting, r)
	require.Nil(t, addr)
	require.ErrorIs(t, err, ErrExecutorRejected)
	require.ErrorContains(t, err, "full")
	require.EqualValues(t, 1, r.stopped.Load())
}

func TestSpawn_nil_actor(t *testing.T) {
	_, err := Spawn[recorder](nil, nil)
	require.ErrorIs(t, err, ErrNilActor)

	var se *SpawnError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "recorder", se.ActorType)
}

func TestActor_failure_continues_by_default(t *testing.T) {
	r := &recorder{}
	addr, err := Spawn(nil, r)
	require.NoError(t, err)

	addr.SendMut(fail(errors.New("uups")))
	addr.SendMut(record("after"))
	addr.Release()
	waitDone(t, addr.Done())

	require.Equal(t, []string{"started", "after", "stopped"}, r.events)
}

func TestActor_fatal_failures(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		msg  Message[recorder]
	}{
		{name: "critical", msg: Critical(fail(errors.New("uups")))},
		{name: "terminate", msg: fail(Terminate(errors.New("uups")))},
		{name: "policy", opts: Options{ErrorPolicy: StopOnError}, msg: fail(errors.New("uups"))},
		{name: "panic under policy", opts: Options{ErrorPolicy: StopOnError}, msg: Func(func(context.Context, *recorder) error {
			panic("kaputt")
		})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &recorder{}
			addr, err := SpawnWithOptions(nil, r, tc.opts)
			require.NoError(t, err)
			defer addr.Release()

			gate := make(chan struct{})
			addr.SendMut(Func(func(context.Context, *recorder) error {
				<-gate
				return nil
			}))
			addr.SendMut(tc.msg)
			rx := reply.Call(func(tx *reply.Sender[int]) {
				addr.SendMut(NewClosure(func(_ context.Context, _ *recorder, tx *reply.Sender[int]) error {
					return tx.Send(1)
				}, tx))
			})
			close(gate)

			waitDone(t, addr.Done())
			_, err = rx.Receive(t.Context())
			require.ErrorIs(t, err, reply.ErrDisconnected)
			require.Equal(t, []string{"started", "stopped"}, r.events)

			// strong handle still held, but the actor is gone
			require.False(t, addr.SendMut(record("late")))
		})
	}
}

type forgiving struct {
	recorder
	seen []string
}

func (f *forgiving) HandleError(op string, err error) ErrorAction {
	f.seen = append(f.seen, op)
	return Continue
}

func TestActor_error_handler_overrides(t *testing.T) {
	f := &forgiving{}
	addr, err := SpawnWithOptions(nil, f, Options{ErrorPolicy: StopOnError})
	require.NoError(t, err)

	addr.SendMut(Named("explode", Critical(Func(func(context.Context, *forgiving) error {
		return Terminate(nil)
	}))))
	done := reply.Call(func(tx *reply.Sender[bool]) {
		addr.SendMut(NewClosure(func(_ context.Context, _ *forgiving, tx *reply.Sender[bool]) error {
			return tx.Send(true)
		}, tx))
	})
	ok, err := done.Receive(t.Context())
	require.NoError(t, err)
	require.True(t, ok)

	addr.Release()
	waitDone(t, addr.Done())
	require.Equal(t, []string{"explode"}, f.seen)
	require.EqualValues(t, 1, f.stopped.Load())
}

func TestActor_panic_contained(t *testing.T) {
	var panics atomic.Int32
	r := &recorder{}
	addr, err := SpawnWithOptions(nil, r, Options{
		OnPanic: func(recovered any, stack []byte, msg any) {
			panics.Add(1)
			assert.Equal(t, "kaputt", recovered)
			assert.NotEmpty(t, stack)
		},
	})
	require.NoError(t, err)

	addr.SendMut(Func(func(context.Context, *recorder) error { panic("kaputt") }))
	addr.SendMut(record("after"))
	addr.Release()
	waitDone(t, addr.Done())

	require.EqualValues(t, 1, panics.Load())
	require.Equal(t, []string{"started", "after", "stopped"}, r.events)
}

type countingMetrics struct {
	nopActorMetrics
	mu        sync.Mutex
	processed map[string]int
	failed    map[string]int
	dropped   int
	started   int
	stopped   int
	closed    []string
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{processed: map[string]int{}, failed: map[string]int{}}
}

func (m *countingMetrics) MessageProcessed(op string, mode string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.processed[op+"/"+mode]++
	} else {
		m.failed[op+"/"+mode]++
	}
}

func (m *countingMetrics) MessageDropped(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

func (m *countingMetrics) ActorStarted(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *countingMetrics) MailboxClosed(actorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = append(m.closed, actorID)
}

func (m *countingMetrics) ActorStopped(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
}

func TestActor_metrics(t *testing.T) {
	m := newCountingMetrics()
	addr, err := SpawnWithOptions(nil, &recorder{}, Options{ID: "rec-1", Metrics: m})
	require.NoError(t, err)

	weak := addr.Downgrade()
	addr.SendMut(Named("write", record("a")))
	addr.Send(Named("read", record("b")))
	addr.SendMut(Named("bad", fail(errors.New("uups"))))
	addr.Release()
	waitDone(t, addr.Done())
	weak.SendMut(record("late"))

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Equal(t, map[string]int{"write/write": 1, "read/read": 1}, m.processed)
	require.Equal(t, map[string]int{"bad/write": 1}, m.failed)
	require.Equal(t, 1, m.dropped)
	require.Equal(t, 1, m.started)
	require.Equal(t, 1, m.stopped)
	require.Equal(t, []string{"rec-1"}, m.closed)
}
