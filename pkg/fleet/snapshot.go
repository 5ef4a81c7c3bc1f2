package fleet

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Snapshot is a complete replacement set of vehicle features, never a delta
type Snapshot struct {
	Features []VehicleFeature
	// Counts is nil when the server did not send any
	Counts *StatusCounts
}

type snapshotPayload struct {
	Features *[]snapshotFeature `json:"features"`
	Counts   *StatusCounts      `json:"counts"`
}

type snapshotFeature struct {
	Type     string `json:"type"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		Timestamp  Label  `json:"timestamp"`
		LastUpdate Label  `json:"last_update"`
	} `json:"properties"`
}

// ParseSnapshot decodes a push message. Any structural problem rejects the whole payload so
// consumers never see a partial snapshot.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var payload snapshotPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedSnapshot, err)
	}

	if payload.Features == nil {
		return nil, fmt.Errorf("%w: missing features", ErrMalformedSnapshot)
	}

	features := make([]VehicleFeature, 0, len(*payload.Features))
	seen := map[string]bool{}

	for i, item := range *payload.Features {
		if len(item.Geometry.Coordinates) < 2 {
			return nil, fmt.Errorf("%w: feature %d has no coordinates", ErrMalformedSnapshot, i)
		}
		if item.Properties.ID == "" {
			return nil, fmt.Errorf("%w: feature %d has no id", ErrMalformedSnapshot, i)
		}
		if seen[item.Properties.ID] {
			return nil, fmt.Errorf("%w: duplicate vehicle %s", ErrMalformedSnapshot, item.Properties.ID)
		}
		seen[item.Properties.ID] = true

		status, err := ParseStatus(item.Properties.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedSnapshot, err)
		}

		features = append(features, VehicleFeature{
			ID:          item.Properties.ID,
			Coordinates: orb.Point{item.Geometry.Coordinates[0], item.Geometry.Coordinates[1]},
			Status:      status,
			Timestamp:   item.Properties.Timestamp,
			LastUpdate:  item.Properties.LastUpdate,
		})
	}

	snapshot := &Snapshot{Features: features}
	if payload.Counts != nil {
		counts := payload.Counts.Normalise()
		snapshot.Counts = &counts
	}

	return snapshot, nil
}

// SnapshotMessage is sent server -> client
type SnapshotMessage struct {
	Type     string             `json:"type"`
	Features []*geojson.Feature `json:"features"`
	Counts   *StatusCounts      `json:"counts,omitempty"`
}

func NewSnapshotMessage(features []*geojson.Feature, counts *StatusCounts) *SnapshotMessage {
	if features == nil {
		features = []*geojson.Feature{}
	}

	return &SnapshotMessage{
		Type:     "FeatureCollection",
		Features: features,
		Counts:   counts,
	}
}
