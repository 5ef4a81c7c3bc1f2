package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

type fakeSessionConn struct {
	incoming chan []byte
	closed   chan struct{}
	once     sync.Once

	mutex   sync.Mutex
	written [][]byte
	failing bool
}

func newFakeSessionConn() *fakeSessionConn {
	return &fakeSessionConn{
		incoming: make(chan []byte, 8),
		closed:   make(chan struct{}),
	}
}

func (c *fakeSessionConn) ReadMessage() (int, []byte, error) {
	select {
	case payload := <-c.incoming:
		return textMessage, payload, nil
	case <-c.closed:
		return 0, nil, io.EOF
	}
}

func (c *fakeSessionConn) WriteMessage(messageType int, data []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.failing {
		return errors.New("broken pipe")
	}
	c.written = append(c.written, data)
	return nil
}

func (c *fakeSessionConn) close() {
	c.once.Do(func() { close(c.closed) })
}

func (c *fakeSessionConn) Written() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.written)
}

type recordingSource struct {
	mutex   sync.Mutex
	filters []fleet.ServerFilters
	fail    bool
}

func (s *recordingSource) SnapshotPayload(ctx context.Context, filters fleet.ServerFilters) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.filters = append(s.filters, filters)
	if s.fail {
		return nil, errors.New("database unavailable")
	}

	return json.Marshal(fleet.NewSnapshotMessage(nil, &fleet.StatusCounts{}))
}

func (s *recordingSource) Requests() []fleet.ServerFilters {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return append([]fleet.ServerFilters{}, s.filters...)
}

func runSession(t *testing.T, session *PushSession) chan error {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result := make(chan error, 1)
	go func() {
		result <- session.Run(ctx)
	}()

	return result
}

func TestPushSessionSendsImmediatelyAndOnInterval(t *testing.T) {
	conn := newFakeSessionConn()
	source := &recordingSource{}
	session := NewPushSession(conn, source, 20*time.Millisecond, fleet.ServerFilters{Car: "TRK1"})

	runSession(t, session)

	require.Eventually(t, func() bool { return conn.Written() >= 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return conn.Written() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, fleet.ServerFilters{Car: "TRK1"}, source.Requests()[0])
}

func TestPushSessionDefaultsNonPositiveInterval(t *testing.T) {
	conn := newFakeSessionConn()
	session := NewPushSession(conn, &recordingSource{}, 0, fleet.ServerFilters{})
	assert.Equal(t, 5*time.Second, session.interval)

	runSession(t, session)
	require.Eventually(t, func() bool { return conn.Written() == 1 }, time.Second, time.Millisecond)

	conn.incoming <- []byte(`{"filters":{"car":"TRK1"}}`)
	require.Eventually(t, func() bool { return conn.Written() == 2 }, time.Second, time.Millisecond)
}

func TestPushSessionAppliesFilterMessages(t *testing.T) {
	conn := newFakeSessionConn()
	source := &recordingSource{}
	session := NewPushSession(conn, source, time.Hour, fleet.ServerFilters{Car: "TRK1", DateFrom: "2024-01-01"})

	runSession(t, session)
	require.Eventually(t, func() bool { return conn.Written() == 1 }, time.Second, time.Millisecond)

	conn.incoming <- []byte(`not json`)
	conn.incoming <- []byte(`{"hello":"world"}`)
	conn.incoming <- []byte(`{"filters":{"car":"TRK2,TRK3","dateTo":"2024-02-01"}}`)

	require.Eventually(t, func() bool { return conn.Written() == 2 }, time.Second, time.Millisecond)

	requests := source.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, fleet.ServerFilters{Car: "TRK2,TRK3", DateFrom: "2024-01-01", DateTo: "2024-02-01"}, requests[1])
}

func TestPushSessionSkipsFailedSnapshots(t *testing.T) {
	conn := newFakeSessionConn()
	source := &recordingSource{fail: true}
	session := NewPushSession(conn, source, 10*time.Millisecond, fleet.ServerFilters{})

	var mutex sync.Mutex
	var failures int
	session.OnPush = func(filters fleet.ServerFilters, size int, err error) {
		mutex.Lock()
		defer mutex.Unlock()
		if err != nil {
			failures++
		}
	}

	result := runSession(t, session)

	require.Eventually(t, func() bool { return len(source.Requests()) >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, conn.Written())

	mutex.Lock()
	assert.GreaterOrEqual(t, failures, 3)
	mutex.Unlock()

	select {
	case err := <-result:
		t.Fatalf("session ended early: %v", err)
	default:
	}
}

func TestPushSessionEndsWhenClientLeaves(t *testing.T) {
	conn := newFakeSessionConn()
	session := NewPushSession(conn, &recordingSource{}, time.Hour, fleet.ServerFilters{})

	result := runSession(t, session)
	require.Eventually(t, func() bool { return conn.Written() == 1 }, time.Second, time.Millisecond)

	conn.close()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrSessionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
	}
}

func TestPushSessionEndsOnWriteFailure(t *testing.T) {
	conn := newFakeSessionConn()
	conn.failing = true
	session := NewPushSession(conn, &recordingSource{}, time.Hour, fleet.ServerFilters{})

	select {
	case err := <-runSession(t, session):
		assert.EqualError(t, err, "broken pipe")
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
	}
}
