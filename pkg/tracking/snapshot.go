package tracking

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sourcegraph/conc/iter"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

// BuildFeatures turns the latest record per vehicle into GeoJSON point features
func BuildFeatures(records []TrackingRecord, now time.Time, config Config) ([]*geojson.Feature, fleet.StatusCounts) {
	features := iter.Map(records, func(record *TrackingRecord) *geojson.Feature {
		feature := geojson.NewFeature(orb.Point{record.Longitude, record.Latitude})
		feature.Properties["id"] = record.Car
		feature.Properties["status"] = DetermineStatus(record.Timestamp, now, config)
		feature.Properties["timestamp"] = record.Timestamp
		feature.Properties["date"] = record.DateString()
		feature.Properties["last_update"] = record.LastUpdate()

		return feature
	})

	counts := fleet.StatusCounts{}
	for _, feature := range features {
		counts.Add(feature.Properties["status"].(fleet.Status))
	}

	return features, counts
}

// BuildSnapshot is the push message for one filter combination
func BuildSnapshot(records []TrackingRecord, now time.Time, config Config) *fleet.SnapshotMessage {
	features, counts := BuildFeatures(records, now, config)

	return fleet.NewSnapshotMessage(features, &counts)
}
