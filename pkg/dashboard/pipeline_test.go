package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

const pipelineSnapshot = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [-0.12, 51.5]},
		 "properties": {"id": "TRK1", "status": "moving", "timestamp": 1714564800, "last_update": "2024-05-01 12:00:00"}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [2.35, 48.85]},
		 "properties": {"id": "TRK2", "status": "idle", "timestamp": 1714563000, "last_update": "2024-05-01 11:30:00"}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [-0.2, 51.4]},
		 "properties": {"id": "TRK3", "status": "stopped", "timestamp": 1714550000, "last_update": "2024-05-01 07:53:20"}}
	],
	"counts": {"moving": 1, "idle": 1, "stopped": 1}
}`

func TestPipelineRendersPushedSnapshot(t *testing.T) {
	received := make(chan fleet.FilterMessage, 1)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var message fleet.FilterMessage
		if err := conn.ReadJSON(&message); err != nil {
			return
		}
		received <- message

		if err := conn.WriteMessage(websocket.TextMessage, []byte(pipelineSnapshot)); err != nil {
			return
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	config, err := ParseConfig([]byte(`
filters:
  vehicles: TRK1,TRK2,TRK3
  date_from: 2024-05-01
viewport:
  bounds: -1,51,1,52
  zoom: 10
`))
	require.NoError(t, err)
	config.Endpoint = "ws" + strings.TrimPrefix(server.URL, "http")

	pipeline, err := newPipeline(config)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	wg := conc.NewWaitGroup()
	pipeline.start(ctx, wg)
	defer wg.Wait()
	defer cancel()

	select {
	case message := <-received:
		assert.Equal(t, fleet.ServerFilters{Car: "TRK1,TRK2,TRK3", DateFrom: "2024-05-01"}, message.Filters)
	case <-time.After(5 * time.Second):
		t.Fatal("filters were not sent on open")
	}

	// TRK2 is outside the viewport
	require.Eventually(t, func() bool {
		return len(pipeline.view.Snapshot().Features) == 2
	}, 5*time.Second, 10*time.Millisecond)

	snapshot := pipeline.view.Snapshot()
	assert.Equal(t, "TRK1", snapshot.Features[0].ID)
	assert.Equal(t, "TRK3", snapshot.Features[1].ID)
	assert.Equal(t, []string{"TRK1", "TRK2", "TRK3"}, snapshot.VehicleIDs)
	assert.Equal(t, fleet.StatusCounts{Moving: 1, Idle: 1, Stopped: 1, Total: 3}, snapshot.KPIs.Server)
	assert.Equal(t, 3, snapshot.KPIs.Filtered.Total)

	// switching off stopped vehicles only re-derives the view locally
	filters := pipeline.coordinator.CurrentFilters()
	filters.Statuses = fleet.NewStatusSet(fleet.StatusMoving, fleet.StatusIdle)
	pipeline.coordinator.SetFilters(filters)

	require.Eventually(t, func() bool {
		features := pipeline.view.Snapshot().Features
		return len(features) == 1 && features[0].ID == "TRK1"
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, pipeline.view.Snapshot().KPIs.Filtered.Total)
}
