package actor

import "sync"

const (
	modeRead  = "read"
	modeWrite = "write"
)

type envelope[A any] struct {
	msg  Message[A]
	mode string
}

// mailbox is the control block shared by every handle of one actor. It
// outlives the actor value and tracks liveness on its own: the strong count
// and the closed flag are only changed under mu, so "no strong handle left
// and queue empty" and "closed" flip atomically with respect to pushes.
type mailbox[A any] struct {
	id      string
	metrics ActorMetrics

	mu     sync.Mutex
	queue  []envelope[A]
	strong int
	closed bool

	wake chan struct{}
	done chan struct{}
}

func newMailbox[A any](id string, m ActorMetrics) *mailbox[A] {
	return &mailbox[A]{
		id:      id,
		metrics: m,
		strong:  1,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (m *mailbox[A]) notify() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// push enqueues env. Weak pushes additionally require a live strong handle.
func (m *mailbox[A]) push(env envelope[A], weak bool) bool {
	m.mu.Lock()
	if m.closed || (weak && m.strong == 0) {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, env)
	m.metrics.MailboxDepth(m.id, len(m.queue))
	m.mu.Unlock()

	m.notify()
	return true
}

// next blocks until a message is available. It returns false once the
// mailbox is closed, closing it itself when the last strong handle is gone
// and the queue is drained.
func (m *mailbox[A]) next() (envelope[A], bool) {
	for {
		m.mu.Lock()
		switch {
		case m.closed:
			m.mu.Unlock()
			return envelope[A]{}, false
		case len(m.queue) > 0:
			env := m.queue[0]
			m.queue[0] = envelope[A]{}
			m.queue = m.queue[1:]
			m.metrics.MailboxDepth(m.id, len(m.queue))
			m.mu.Unlock()
			return env, true
		case m.strong == 0:
			m.closed = true
			m.mu.Unlock()
			return envelope[A]{}, false
		}
		m.mu.Unlock()
		<-m.wake
	}
}

// close stops accepting messages and returns whatever was still queued.
// Teardown calls it exactly once. Depth is reported under mu, so no push
// can report after MailboxClosed.
func (m *mailbox[A]) close() []envelope[A] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.metrics.MailboxClosed(m.id)
	pending := m.queue
	m.queue = nil
	return pending
}

func (m *mailbox[A]) acquire() {
	m.mu.Lock()
	m.strong++
	m.mu.Unlock()
}

// tryAcquire adds a strong reference only while the actor is alive.
func (m *mailbox[A]) tryAcquire() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.strong == 0 {
		return false
	}
	m.strong++
	return true
}

func (m *mailbox[A]) release() {
	m.mu.Lock()
	m.strong--
	last := m.strong == 0
	m.mu.Unlock()
	if last {
		m.notify()
	}
}

func (m *mailbox[A]) isAlive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed && m.strong > 0
}
