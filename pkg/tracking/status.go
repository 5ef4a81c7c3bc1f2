package tracking

import (
	"time"

	"github.com/travigo/truck-tracker/pkg/fleet"
)

// DetermineStatus classifies a vehicle by the age of its latest report
func DetermineStatus(timestamp int64, now time.Time, config Config) fleet.Status {
	age := now.Sub(time.Unix(timestamp, 0))

	switch {
	case age > config.StoppedAfter:
		return fleet.StatusStopped
	case age > config.IdleAfter:
		return fleet.StatusIdle
	default:
		return fleet.StatusMoving
	}
}
