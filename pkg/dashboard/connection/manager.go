// Package connection keeps the push connection to the tracking server alive. It reconnects with a
// fixed delay until the retry budget runs out, forwards every valid snapshot and re-sends the
// current filters whenever a connection opens.
package connection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

var ErrConnectionFailed = errors.New("connection failed after exhausting reconnect attempts")

const (
	DefaultMaxRetries     = 5
	DefaultReconnectDelay = 3000 * time.Millisecond
)

type Config struct {
	Endpoint       string
	MaxRetries     int
	ReconnectDelay time.Duration
}

type Manager struct {
	config    Config
	dialer    Dialer
	scheduler Scheduler
	sink      SnapshotSink
	filters   FilterSource
	listener  StatusListener

	mutex      sync.Mutex
	ctx        context.Context
	state      State
	retries    int
	generation uint64
	conn       Conn

	failed chan struct{}
}

func NewManager(config Config, dialer Dialer, scheduler Scheduler, sink SnapshotSink, filters FilterSource, listener StatusListener) *Manager {
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = DefaultReconnectDelay
	}

	return &Manager{
		config:    config,
		dialer:    dialer,
		scheduler: scheduler,
		sink:      sink,
		filters:   filters,
		listener:  listener,
		ctx:       context.Background(),
		state:     StateClosed,
		failed:    make(chan struct{}),
	}
}

// Run connects and blocks until ctx is cancelled or the retry budget is exhausted
func (m *Manager) Run(ctx context.Context) error {
	m.mutex.Lock()
	m.ctx = ctx
	m.mutex.Unlock()

	m.connect()

	select {
	case <-ctx.Done():
		m.mutex.Lock()
		if m.conn != nil {
			m.conn.Close()
		}
		m.mutex.Unlock()

		return ctx.Err()
	case <-m.failed:
		return ErrConnectionFailed
	}
}

func (m *Manager) State() State {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.state
}

func (m *Manager) Retries() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.retries
}

func (m *Manager) Generation() uint64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.generation
}

// SendFilters forwards the server side filters if the connection is open. Nothing is queued
// while disconnected since the filters are sent again on the next open.
func (m *Manager) SendFilters(filters fleet.FilterState) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.state != StateOpen || m.conn == nil {
		return false
	}

	return m.writeFilters(filters)
}

func (m *Manager) writeFilters(filters fleet.FilterState) bool {
	message := fleet.FilterMessage{Filters: filters.ServerFilters()}

	if err := m.conn.WriteJSON(message); err != nil {
		log.Error().Err(err).Msg("Failed to send filters")
		return false
	}

	log.Debug().
		Str("car", message.Filters.Car).
		Str("dateFrom", message.Filters.DateFrom).
		Str("dateTo", message.Filters.DateTo).
		Msg("Sent filters")

	return true
}

func (m *Manager) connect() {
	m.mutex.Lock()
	if m.state == StateFailed || m.ctx.Err() != nil {
		m.mutex.Unlock()
		return
	}
	m.generation++
	generation := m.generation
	m.state = StateConnecting
	ctx := m.ctx
	m.mutex.Unlock()

	log.Info().Str("endpoint", m.config.Endpoint).Uint64("generation", generation).Msg("Connecting")

	go m.readLoop(ctx, generation)
}

func (m *Manager) readLoop(ctx context.Context, generation uint64) {
	conn, err := m.dialer.Dial(ctx, m.config.Endpoint)
	if err != nil {
		// a cancelled dial is a shutdown, not a connection error
		if ctx.Err() == nil {
			m.HandleEvent(Event{Type: EventError, Generation: generation, Err: err})
		}
		m.HandleEvent(Event{Type: EventClose, Generation: generation})
		return
	}

	m.HandleEvent(Event{Type: EventOpen, Generation: generation, Conn: conn})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.HandleEvent(Event{Type: EventError, Generation: generation, Err: err})
			}
			m.HandleEvent(Event{Type: EventClose, Generation: generation})
			return
		}

		m.HandleEvent(Event{Type: EventMessage, Generation: generation, Payload: payload})
	}
}

// HandleEvent is the only place connection state changes
func (m *Manager) HandleEvent(event Event) {
	m.mutex.Lock()

	if event.Generation != m.generation {
		m.mutex.Unlock()

		log.Debug().Uint64("generation", event.Generation).Msg("Ignoring event from superseded connection")
		if event.Type == EventOpen && event.Conn != nil {
			event.Conn.Close()
		}
		return
	}

	switch event.Type {
	case EventOpen:
		if m.state == StateFailed || m.ctx.Err() != nil {
			m.mutex.Unlock()
			event.Conn.Close()
			return
		}

		m.state = StateOpen
		m.retries = 0
		m.conn = event.Conn
		m.writeFilters(m.filters.CurrentFilters())
		m.mutex.Unlock()

		log.Info().Str("endpoint", m.config.Endpoint).Msg("Connection open")
		m.listener.ConnectionOpened()
	case EventMessage:
		m.mutex.Unlock()

		snapshot, err := fleet.ParseSnapshot(event.Payload)
		if err != nil {
			log.Error().Err(err).Int("size", len(event.Payload)).Msg("Dropping malformed snapshot")
			return
		}

		log.Debug().Int("features", len(snapshot.Features)).Msg("Received snapshot")
		m.sink.OnSnapshot(snapshot)
	case EventError:
		m.mutex.Unlock()

		log.Error().Err(event.Err).Msg("Connection error")
		m.listener.ConnectionError(event.Err)
	case EventClose:
		if m.state == StateFailed {
			m.mutex.Unlock()
			return
		}

		if m.conn != nil {
			m.conn.Close()
			m.conn = nil
		}
		m.state = StateClosed

		if m.ctx.Err() != nil {
			m.mutex.Unlock()
			return
		}

		if m.retries < m.config.MaxRetries {
			m.retries++
			attempt := m.retries
			m.mutex.Unlock()

			log.Info().
				Int("attempt", attempt).
				Int("maxRetries", m.config.MaxRetries).
				Dur("delay", m.config.ReconnectDelay).
				Msg("Connection closed, reconnecting")
			m.scheduler.AfterFunc(m.config.ReconnectDelay, m.connect)
			return
		}

		m.state = StateFailed
		close(m.failed)
		m.mutex.Unlock()

		log.Error().Int("maxRetries", m.config.MaxRetries).Msg("Connection failed, giving up")
		m.listener.ConnectionFailed()
	default:
		m.mutex.Unlock()
	}
}
