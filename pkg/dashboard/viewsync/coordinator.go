// Package viewsync owns the dashboard state and re-derives the rendered view whenever a snapshot,
// a filter change or a viewport change arrives. All state changes happen on the Run goroutine.
package viewsync

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/dashboard/featurestore"
	"github.com/travigo/truck-tracker/pkg/dashboard/filterengine"
	"github.com/travigo/truck-tracker/pkg/dashboard/mailbox"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

type Options struct {
	Filters  fleet.FilterState
	Viewport fleet.ViewportState

	Index    SpatialIndex
	Renderer Renderer
	KPIs     KPIDisplay
	Selector VehicleSelector
}

type snapshotEvent struct {
	snapshot *fleet.Snapshot
}

type filtersEvent struct {
	filters fleet.FilterState
}

type viewportEvent struct {
	viewport fleet.ViewportState
}

type Coordinator struct {
	index    SpatialIndex
	renderer Renderer
	kpis     KPIDisplay
	selector VehicleSelector
	sender   FilterSender

	events *mailbox.Mailbox[interface{}]

	// published copy of filters for other goroutines
	current atomic.Pointer[fleet.FilterState]

	// owned by the Run goroutine
	store    *featurestore.Store
	filters  fleet.FilterState
	viewport fleet.ViewportState
	filtered filterengine.Result
	sequence uint64
}

func New(options Options) *Coordinator {
	if options.Filters.Statuses == nil {
		options.Filters = fleet.DefaultFilterState()
	}
	if options.Viewport.Bounds.IsZero() {
		options.Viewport = fleet.WorldViewport()
	}

	coordinator := &Coordinator{
		index:    options.Index,
		renderer: options.Renderer,
		kpis:     options.KPIs,
		selector: options.Selector,
		events:   mailbox.New[interface{}](),
		store:    featurestore.New(),
		filters:  options.Filters.Clone(),
		viewport: options.Viewport,
	}
	coordinator.publishFilters()

	return coordinator
}

// SetFilterSender must be called before Run
func (c *Coordinator) SetFilterSender(sender FilterSender) {
	c.sender = sender
}

// CurrentFilters is safe to call from any goroutine
func (c *Coordinator) CurrentFilters() fleet.FilterState {
	return c.current.Load().Clone()
}

func (c *Coordinator) OnSnapshot(snapshot *fleet.Snapshot) {
	c.events.Post(snapshotEvent{snapshot: snapshot})
}

func (c *Coordinator) SetFilters(filters fleet.FilterState) {
	c.events.Post(filtersEvent{filters: filters.Clone()})
}

func (c *Coordinator) SetViewport(viewport fleet.ViewportState) {
	c.events.Post(viewportEvent{viewport: viewport})
}

func (c *Coordinator) Run(ctx context.Context) error {
	c.query()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.events.Signal():
			for _, event := range c.events.Drain() {
				c.handle(event)
			}
		case response := <-c.index.Results():
			c.handleResponse(response.Sequence, response.Features)
		}
	}
}

func (c *Coordinator) handle(event interface{}) {
	switch e := event.(type) {
	case snapshotEvent:
		c.store.ReplaceAll(e.snapshot.Features, e.snapshot.Counts)
		c.selector.SetVehicleIDs(c.store.VehicleIDs())

		c.refilter()
		c.query()
	case filtersEvent:
		previous := c.filters
		c.filters = e.filters
		c.publishFilters()

		if previous.ServerFiltersChanged(c.filters) && c.sender != nil {
			c.sender.SendFilters(c.filters)
		}

		c.refilter()
		c.query()
	case viewportEvent:
		c.viewport = e.viewport
		c.query()
	}
}

func (c *Coordinator) refilter() {
	c.filtered = filterengine.Apply(c.store.Features(), c.filters)
	c.index.Seed(c.filtered.Features)

	log.Debug().
		Int("stored", c.store.Len()).
		Int("filtered", len(c.filtered.Features)).
		Msg("Refiltered features")
}

func (c *Coordinator) query() {
	c.sequence++
	c.index.Query(c.sequence, c.viewport)
}

func (c *Coordinator) handleResponse(sequence uint64, features []fleet.VehicleFeature) {
	if sequence < c.sequence {
		log.Debug().Uint64("sequence", sequence).Uint64("latest", c.sequence).Msg("Dropping stale query result")
		return
	}

	c.renderer.Clear()
	for _, feature := range features {
		c.renderer.Add(feature)
	}

	c.kpis.UpdateKPIs(KPIs{
		Server:   c.store.Counts(),
		Filtered: c.filtered.Counts,
	})
}

func (c *Coordinator) publishFilters() {
	filters := c.filters.Clone()
	c.current.Store(&filters)
}
