package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

type Service struct {
	Store  Store
	Config Config

	// Cache is optional
	Cache *SnapshotCache

	Now func() time.Time
}

func NewService(store Store, config Config, snapshotCache *SnapshotCache) *Service {
	return &Service{
		Store:  store,
		Config: config,
		Cache:  snapshotCache,
		Now:    time.Now,
	}
}

// Snapshot builds the full push message for the filters, without touching the cache
func (s *Service) Snapshot(ctx context.Context, filters fleet.ServerFilters) (*fleet.SnapshotMessage, error) {
	records, err := s.Store.LatestPositions(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("latest positions: %w", err)
	}

	return BuildSnapshot(records, s.Now(), s.Config), nil
}

// SnapshotPayload is the encoded push message, served from the cache when possible
func (s *Service) SnapshotPayload(ctx context.Context, filters fleet.ServerFilters) ([]byte, error) {
	key := filters.CacheKey()

	if s.Cache != nil {
		if payload, ok := s.Cache.Get(ctx, key); ok {
			return payload, nil
		}
	}

	snapshot, err := s.Snapshot(ctx, filters)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, payload); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to cache snapshot")
		}
	}

	return payload, nil
}

func (s *Service) Vehicles(ctx context.Context) ([]string, error) {
	vehicles, err := s.Store.Vehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("vehicles: %w", err)
	}
	if vehicles == nil {
		vehicles = []string{}
	}

	return vehicles, nil
}

func (s *Service) History(ctx context.Context, car string, dateFrom string, dateTo string) ([]TrackingRecord, error) {
	records, err := s.Store.History(ctx, car, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", car, err)
	}
	if records == nil {
		records = []TrackingRecord{}
	}

	return records, nil
}
