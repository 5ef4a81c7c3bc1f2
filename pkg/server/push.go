package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/fleet"
	"github.com/travigo/truck-tracker/pkg/tracking"
)

const textMessage = 1

var ErrSessionClosed = errors.New("push session closed by client")

// SessionConn is the subset of a websocket connection a push session needs
type SessionConn interface {
	ReadMessage() (messageType int, payload []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

type SnapshotSource interface {
	SnapshotPayload(ctx context.Context, filters fleet.ServerFilters) ([]byte, error)
}

// PushSession streams snapshots to one client: once on open, on every interval tick and straight
// after every filter message
type PushSession struct {
	conn      SessionConn
	snapshots SnapshotSource
	interval  time.Duration
	filters   fleet.ServerFilters

	// OnPush is called after every push attempt that produced a snapshot
	OnPush func(filters fleet.ServerFilters, size int, err error)
}

// NewPushSession falls back to the default push interval when interval is not positive
func NewPushSession(conn SessionConn, snapshots SnapshotSource, interval time.Duration, filters fleet.ServerFilters) *PushSession {
	if interval <= 0 {
		interval = tracking.DefaultConfig().PushInterval
	}

	return &PushSession{
		conn:      conn,
		snapshots: snapshots,
		interval:  interval,
		filters:   filters,
		OnPush:    func(fleet.ServerFilters, int, error) {},
	}
}

func (s *PushSession) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan fleet.FilterUpdateMessage)
	readErrors := make(chan error, 1)

	go s.readLoop(ctx, updates, readErrors)

	if err := s.push(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErrors:
			return err
		case update := <-updates:
			s.filters = update.Apply(s.filters)

			log.Info().
				Str("car", s.filters.Car).
				Str("dateFrom", s.filters.DateFrom).
				Str("dateTo", s.filters.DateTo).
				Msg("Received filters")

			if err := s.push(ctx); err != nil {
				return err
			}
			ticker.Reset(s.interval)
		case <-ticker.C:
			if err := s.push(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *PushSession) readLoop(ctx context.Context, updates chan<- fleet.FilterUpdateMessage, readErrors chan<- error) {
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			readErrors <- errors.Join(ErrSessionClosed, err)
			return
		}

		var update fleet.FilterUpdateMessage
		if err := json.Unmarshal(payload, &update); err != nil {
			log.Error().Err(err).Msg("Error processing client message")
			continue
		}
		if update.Filters == nil {
			continue
		}

		select {
		case updates <- update:
		case <-ctx.Done():
			return
		}
	}
}

// push only fails when the client can no longer be written to. A snapshot that cannot be built
// is skipped so the client keeps its previous data.
func (s *PushSession) push(ctx context.Context) error {
	payload, err := s.snapshots.SnapshotPayload(ctx, s.filters)
	if err != nil {
		log.Error().Err(err).Msg("Error getting truck locations")
		s.OnPush(s.filters, 0, err)
		return nil
	}

	if err := s.conn.WriteMessage(textMessage, payload); err != nil {
		return err
	}

	log.Debug().Int("size", len(payload)).Msg("Sent snapshot")
	s.OnPush(s.filters, len(payload), nil)

	return nil
}
