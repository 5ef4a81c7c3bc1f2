package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

type fakeStore struct {
	mutex   sync.Mutex
	records []TrackingRecord
	err     error
	calls   int
	filters []fleet.ServerFilters
}

func (s *fakeStore) LatestPositions(ctx context.Context, filters fleet.ServerFilters) ([]TrackingRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.calls++
	s.filters = append(s.filters, filters)

	return s.records, s.err
}

func (s *fakeStore) Vehicles(ctx context.Context) ([]string, error) {
	return nil, s.err
}

func (s *fakeStore) History(ctx context.Context, car string, dateFrom string, dateTo string) ([]TrackingRecord, error) {
	return nil, s.err
}

func (s *fakeStore) Insert(ctx context.Context, records []TrackingRecord) error {
	return s.err
}

var serviceNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store Store, snapshotCache *SnapshotCache) *Service {
	service := NewService(store, DefaultConfig(), snapshotCache)
	service.Now = func() time.Time { return serviceNow }

	return service
}

func TestSnapshotPayload(t *testing.T) {
	store := &fakeStore{records: []TrackingRecord{
		{Car: "TRK1", Latitude: 1, Longitude: 2, Timestamp: serviceNow.Add(-40 * time.Minute).Unix()},
	}}
	service := newTestService(store, nil)

	payload, err := service.SnapshotPayload(context.Background(), fleet.ServerFilters{Car: "TRK1"})
	require.NoError(t, err)

	snapshot, err := fleet.ParseSnapshot(payload)
	require.NoError(t, err)
	assert.Equal(t, fleet.StatusIdle, snapshot.Features[0].Status)
	assert.Equal(t, 1, snapshot.Counts.Idle)
	assert.Equal(t, []fleet.ServerFilters{{Car: "TRK1"}}, store.filters)
}

func TestSnapshotPayloadUsesCache(t *testing.T) {
	store := &fakeStore{records: []TrackingRecord{
		{Car: "TRK1", Latitude: 1, Longitude: 2, Timestamp: serviceNow.Unix()},
	}}
	snapshotCache, _ := newTestCache(t, time.Minute)
	service := newTestService(store, snapshotCache)

	first, err := service.SnapshotPayload(context.Background(), fleet.ServerFilters{})
	require.NoError(t, err)
	second, err := service.SnapshotPayload(context.Background(), fleet.ServerFilters{})
	require.NoError(t, err)
	_, err = service.SnapshotPayload(context.Background(), fleet.ServerFilters{DateFrom: "2024-05-01"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, store.calls)
}

func TestSnapshotPayloadStoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	service := newTestService(&fakeStore{err: storeErr}, nil)

	_, err := service.SnapshotPayload(context.Background(), fleet.ServerFilters{})
	assert.ErrorIs(t, err, storeErr)
}

func TestVehiclesAndHistoryNeverNil(t *testing.T) {
	service := newTestService(&fakeStore{}, nil)

	vehicles, err := service.Vehicles(context.Background())
	require.NoError(t, err)
	history, err := service.History(context.Background(), "TRK1", "", "")
	require.NoError(t, err)

	vehiclesJSON, _ := json.Marshal(vehicles)
	historyJSON, _ := json.Marshal(history)
	assert.Equal(t, "[]", string(vehiclesJSON))
	assert.Equal(t, "[]", string(historyJSON))
}
