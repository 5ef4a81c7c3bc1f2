package fleet

import (
	"encoding/json"
	"fmt"
)

type Status string

const (
	StatusMoving  Status = "moving"
	StatusIdle    Status = "idle"
	StatusStopped Status = "stopped"
)

// AllStatuses is the display order used by KPIs and filter widgets
var AllStatuses = []Status{StatusMoving, StatusIdle, StatusStopped}

func (s Status) Valid() bool {
	switch s {
	case StatusMoving, StatusIdle, StatusStopped:
		return true
	}

	return false
}

func ParseStatus(value string) (Status, error) {
	status := Status(value)
	if !status.Valid() {
		return "", fmt.Errorf("unknown vehicle status %q", value)
	}

	return status, nil
}

// StatusSet is the set of statuses currently enabled in the filter widgets
type StatusSet map[Status]bool

func NewStatusSet(statuses ...Status) StatusSet {
	set := StatusSet{}
	for _, status := range statuses {
		set[status] = true
	}

	return set
}

func (s StatusSet) Contains(status Status) bool {
	return s[status]
}

func (s StatusSet) Clone() StatusSet {
	clone := StatusSet{}
	for status, enabled := range s {
		if enabled {
			clone[status] = true
		}
	}

	return clone
}

func (s StatusSet) Equal(other StatusSet) bool {
	for _, status := range AllStatuses {
		if s.Contains(status) != other.Contains(status) {
			return false
		}
	}

	return true
}

// MarshalJSON writes the set as {"moving":true,"idle":false,"stopped":true} so every status is visible
func (s StatusSet) MarshalJSON() ([]byte, error) {
	values := map[Status]bool{}
	for _, status := range AllStatuses {
		values[status] = s.Contains(status)
	}

	return json.Marshal(values)
}

func (s *StatusSet) UnmarshalJSON(data []byte) error {
	var values map[string]bool
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}

	set := StatusSet{}
	for key, enabled := range values {
		status, err := ParseStatus(key)
		if err != nil {
			return err
		}
		if enabled {
			set[status] = true
		}
	}
	*s = set

	return nil
}

type StatusCounts struct {
	Moving  int `json:"moving"`
	Idle    int `json:"idle"`
	Stopped int `json:"stopped"`
	Total   int `json:"total"`
}

// Normalise re-derives Total from the three status fields
func (c StatusCounts) Normalise() StatusCounts {
	c.Total = c.Moving + c.Idle + c.Stopped
	return c
}

func (c *StatusCounts) Add(status Status) {
	switch status {
	case StatusMoving:
		c.Moving++
	case StatusIdle:
		c.Idle++
	case StatusStopped:
		c.Stopped++
	default:
		return
	}
	c.Total++
}

func CountStatuses(features []VehicleFeature) StatusCounts {
	counts := StatusCounts{}
	for _, feature := range features {
		counts.Add(feature.Status)
	}

	return counts
}
