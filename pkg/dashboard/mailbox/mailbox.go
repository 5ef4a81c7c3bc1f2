// Package mailbox is an unbounded FIFO queue for goroutines that own their state and are only
// reachable by message passing.
package mailbox

import "sync"

type Mailbox[T any] struct {
	mutex    sync.Mutex
	messages []T
	signal   chan struct{}
}

func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		signal: make(chan struct{}, 1),
	}
}

// Post never blocks
func (m *Mailbox[T]) Post(message T) {
	m.mutex.Lock()
	m.messages = append(m.messages, message)
	m.mutex.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Signal fires at least once after any Post that has not been drained yet
func (m *Mailbox[T]) Signal() <-chan struct{} {
	return m.signal
}

// Drain removes and returns every queued message in posting order
func (m *Mailbox[T]) Drain() []T {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	messages := m.messages
	m.messages = nil

	return messages
}

func (m *Mailbox[T]) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return len(m.messages)
}
