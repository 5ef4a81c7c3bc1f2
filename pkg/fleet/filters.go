package fleet

import (
	"strings"

	"github.com/travigo/truck-tracker/pkg/util"
)

// FilterState is everything the filter widgets control. Status filtering happens locally,
// vehicle and date bounds are forwarded to the server with every connection and change.
type FilterState struct {
	Statuses     StatusSet `json:"statuses"`
	VehicleQuery string    `json:"vehicles"`
	DateFrom     string    `json:"dateFrom"`
	DateTo       string    `json:"dateTo"`
}

func DefaultFilterState() FilterState {
	return FilterState{
		Statuses: NewStatusSet(AllStatuses...),
	}
}

func (f FilterState) Clone() FilterState {
	f.Statuses = f.Statuses.Clone()
	return f
}

// VehicleTokens splits the vehicle query on commas, dropping blanks. Tokens keep their case.
func (f FilterState) VehicleTokens() []string {
	return util.SplitTrimmed(f.VehicleQuery, ",")
}

// ServerFilters returns the part of the filter state the server applies
func (f FilterState) ServerFilters() ServerFilters {
	return ServerFilters{
		Car:      f.VehicleQuery,
		DateFrom: f.DateFrom,
		DateTo:   f.DateTo,
	}
}

// ServerFiltersChanged reports whether the fields forwarded to the server differ
func (f FilterState) ServerFiltersChanged(other FilterState) bool {
	return f.ServerFilters() != other.ServerFilters()
}

type ServerFilters struct {
	Car      string `json:"car"`
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}

// CarList returns the comma separated car filter as a list of distinct exact identifiers
func (s ServerFilters) CarList() []string {
	return util.RemoveDuplicateStrings(util.SplitTrimmed(s.Car, ","), nil)
}

// CacheKey identifies a filter combination for snapshot caching
func (s ServerFilters) CacheKey() string {
	return strings.Join([]string{"snapshot", s.Car, s.DateFrom, s.DateTo}, "|")
}

// FilterMessage is sent client -> server
type FilterMessage struct {
	Filters ServerFilters `json:"filters"`
}

// FilterUpdateMessage is the server side view of a FilterMessage where absent keys keep their
// current value
type FilterUpdateMessage struct {
	Filters *struct {
		Car      *string `json:"car"`
		DateFrom *string `json:"dateFrom"`
		DateTo   *string `json:"dateTo"`
	} `json:"filters"`
}

// Apply merges the present keys over the current filters
func (m FilterUpdateMessage) Apply(current ServerFilters) ServerFilters {
	if m.Filters == nil {
		return current
	}
	if m.Filters.Car != nil {
		current.Car = *m.Filters.Car
	}
	if m.Filters.DateFrom != nil {
		current.DateFrom = *m.Filters.DateFrom
	}
	if m.Filters.DateTo != nil {
		current.DateTo = *m.Filters.DateTo
	}

	return current
}
