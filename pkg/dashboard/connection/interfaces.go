package connection

import (
	"context"
	"time"

	"github.com/travigo/truck-tracker/pkg/fleet"
)

// Conn is the subset of *websocket.Conn the manager needs
type Conn interface {
	ReadMessage() (messageType int, payload []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

type Scheduler interface {
	AfterFunc(delay time.Duration, f func())
}

// SnapshotSink receives every well formed snapshot
type SnapshotSink interface {
	OnSnapshot(snapshot *fleet.Snapshot)
}

// FilterSource supplies the filters sent whenever a connection opens
type FilterSource interface {
	CurrentFilters() fleet.FilterState
}

type StatusListener interface {
	ConnectionOpened()
	ConnectionError(err error)
	// ConnectionFailed is called once, after the retry budget is spent
	ConnectionFailed()
}

type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(delay time.Duration, f func()) {
	time.AfterFunc(delay, f)
}
