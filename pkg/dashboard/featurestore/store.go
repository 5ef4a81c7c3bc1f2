package featurestore

import (
	"sync"

	"github.com/travigo/truck-tracker/pkg/fleet"
	"golang.org/x/exp/slices"
)

// Store holds the canonical, most recently received set of vehicle features
type Store struct {
	mu sync.RWMutex

	features []fleet.VehicleFeature
	counts   fleet.StatusCounts
}

func New() *Store {
	return &Store{
		features: []fleet.VehicleFeature{},
	}
}

// ReplaceAll swaps in a whole snapshot. When counts is nil they are derived from the features.
func (s *Store) ReplaceAll(features []fleet.VehicleFeature, counts *fleet.StatusCounts) {
	replacement := make([]fleet.VehicleFeature, len(features))
	copy(replacement, features)

	var replacementCounts fleet.StatusCounts
	if counts == nil {
		replacementCounts = fleet.CountStatuses(replacement)
	} else {
		replacementCounts = counts.Normalise()
	}

	s.mu.Lock()
	s.features = replacement
	s.counts = replacementCounts
	s.mu.Unlock()
}

func (s *Store) Features() []fleet.VehicleFeature {
	s.mu.RLock()
	defer s.mu.RUnlock()

	features := make([]fleet.VehicleFeature, len(s.features))
	copy(features, s.features)

	return features
}

func (s *Store) Counts() fleet.StatusCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.counts
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.features)
}

// VehicleIDs returns the known vehicle ids sorted ascending with duplicates collapsed
func (s *Store) VehicleIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.features))
	for _, feature := range s.features {
		ids = append(ids, feature.ID)
	}
	s.mu.RUnlock()

	slices.Sort(ids)

	return slices.Compact(ids)
}
