// Package filterengine combines the status and vehicle predicates into a single filtered view
// of the feature store. Date bounds are never applied here; the server already filtered the
// snapshot by them.
package filterengine

import (
	"strings"

	"github.com/travigo/truck-tracker/pkg/fleet"
	"github.com/travigo/truck-tracker/pkg/util"
)

type Result struct {
	Features []fleet.VehicleFeature
	// Counts are recomputed over Features, unlike the server supplied snapshot counts
	Counts fleet.StatusCounts
}

func Apply(features []fleet.VehicleFeature, filters fleet.FilterState) Result {
	predicate := Predicate(filters)

	filtered := util.Filter(features, predicate)

	return Result{
		Features: filtered,
		Counts:   fleet.CountStatuses(filtered),
	}
}

// Predicate builds the per-feature test. Vehicle tokens match as case-insensitive substrings so
// partial ids still match.
func Predicate(filters fleet.FilterState) func(fleet.VehicleFeature) bool {
	tokens := filters.VehicleTokens()
	for i, token := range tokens {
		tokens[i] = strings.ToLower(token)
	}

	statuses := filters.Statuses.Clone()

	return func(feature fleet.VehicleFeature) bool {
		if !statuses.Contains(feature.Status) {
			return false
		}

		if len(tokens) == 0 {
			return true
		}

		id := strings.ToLower(feature.ID)
		for _, token := range tokens {
			if strings.Contains(id, token) {
				return true
			}
		}

		return false
	}
}
