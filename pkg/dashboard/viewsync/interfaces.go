package viewsync

import (
	"github.com/travigo/truck-tracker/pkg/dashboard/spatialworker"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

// Renderer draws vehicles on the map. Every update is a Clear followed by an Add per feature.
type Renderer interface {
	Clear()
	Add(feature fleet.VehicleFeature)
}

type KPIs struct {
	// Server holds the counts of the latest snapshot
	Server fleet.StatusCounts `json:"server"`
	// Filtered holds the counts of the filtered set before the viewport is applied
	Filtered fleet.StatusCounts `json:"filtered"`
}

type KPIDisplay interface {
	UpdateKPIs(kpis KPIs)
}

type VehicleSelector interface {
	SetVehicleIDs(ids []string)
}

type FilterSender interface {
	SendFilters(filters fleet.FilterState) bool
}

// SpatialIndex is the asynchronous bounding box lookup, normally a *spatialworker.Worker
type SpatialIndex interface {
	Seed(features []fleet.VehicleFeature)
	Query(sequence uint64, viewport fleet.ViewportState)
	Results() <-chan spatialworker.Response
}
