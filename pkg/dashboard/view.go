package dashboard

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/dashboard/viewsync"
	"github.com/travigo/truck-tracker/pkg/fleet"
	"golang.org/x/exp/slices"
)

// View is the headless presentation of the dashboard. It renders into memory so the last frame can
// be inspected over the control API.
//
// A frame is built by Clear and Add and becomes visible once UpdateKPIs is called for it.
type View struct {
	mutex sync.RWMutex

	pending []fleet.VehicleFeature

	rendered   []fleet.VehicleFeature
	kpis       viewsync.KPIs
	vehicleIDs []string
	renderedAt time.Time

	connectionFailed bool
	lastError        string

	now func() time.Time
}

// ViewSnapshot is a point in time copy of the View
type ViewSnapshot struct {
	Features   []fleet.VehicleFeature `json:"features"`
	KPIs       viewsync.KPIs          `json:"kpis"`
	VehicleIDs []string               `json:"vehicle_ids"`
	RenderedAt time.Time              `json:"rendered_at"`

	Connection string             `json:"connection"`
	LastError  string             `json:"last_error,omitempty"`
	Filters    *fleet.FilterState `json:"filters,omitempty"`
}

func NewView() *View {
	return &View{
		rendered:   []fleet.VehicleFeature{},
		vehicleIDs: []string{},
		now:        time.Now,
	}
}

func (v *View) Clear() {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.pending = []fleet.VehicleFeature{}
}

func (v *View) Add(feature fleet.VehicleFeature) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.pending = append(v.pending, feature)
}

func (v *View) UpdateKPIs(kpis viewsync.KPIs) {
	v.mutex.Lock()
	if v.pending != nil {
		v.rendered = v.pending
		v.pending = nil
	}
	v.kpis = kpis
	v.renderedAt = v.now()
	rendered := len(v.rendered)
	v.mutex.Unlock()

	log.Debug().
		Int("rendered", rendered).
		Int("moving", kpis.Server.Moving).
		Int("idle", kpis.Server.Idle).
		Int("stopped", kpis.Server.Stopped).
		Int("total", kpis.Filtered.Total).
		Msg("Rendered view")
}

func (v *View) SetVehicleIDs(ids []string) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.vehicleIDs = slices.Clone(ids)
}

func (v *View) ConnectionOpened() {
	v.mutex.Lock()
	v.lastError = ""
	v.mutex.Unlock()

	log.Info().Msg("Connected to tracking server")
}

func (v *View) ConnectionError(err error) {
	v.mutex.Lock()
	v.lastError = err.Error()
	v.mutex.Unlock()

	log.Error().Err(err).Msg("Tracking server connection error")
}

func (v *View) ConnectionFailed() {
	v.mutex.Lock()
	v.connectionFailed = true
	v.mutex.Unlock()

	log.Error().Msg("Unable to connect to the tracking server, giving up")
}

func (v *View) ConnectionHasFailed() bool {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	return v.connectionFailed
}

func (v *View) Snapshot() ViewSnapshot {
	v.mutex.RLock()
	defer v.mutex.RUnlock()

	return ViewSnapshot{
		Features:   slices.Clone(v.rendered),
		KPIs:       v.kpis,
		VehicleIDs: slices.Clone(v.vehicleIDs),
		RenderedAt: v.renderedAt,
		LastError:  v.lastError,
	}
}
