package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

func TestDetermineStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	config := DefaultConfig()

	tests := []struct {
		name string
		age  time.Duration
		want fleet.Status
	}{
		{"fresh", time.Minute, fleet.StatusMoving},
		{"exactly idle threshold", 30 * time.Minute, fleet.StatusMoving},
		{"past idle threshold", 31 * time.Minute, fleet.StatusIdle},
		{"exactly stopped threshold", time.Hour, fleet.StatusIdle},
		{"past stopped threshold", time.Hour + time.Second, fleet.StatusStopped},
		{"days old", 72 * time.Hour, fleet.StatusStopped},
		{"clock skew", -5 * time.Minute, fleet.StatusMoving},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			timestamp := now.Add(-test.age).Unix()
			assert.Equal(t, test.want, DetermineStatus(timestamp, now, config))
		})
	}
}

func TestParseISODuration(t *testing.T) {
	duration, err := ParseISODuration("PT30M")
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Minute, duration)

	duration, err = ParseISODuration("PT1H30M15S")
	assert.NoError(t, err)
	assert.Equal(t, time.Hour+30*time.Minute+15*time.Second, duration)

	_, err = ParseISODuration("thirty minutes")
	assert.Error(t, err)
}

func TestGetConfig(t *testing.T) {
	t.Setenv("TRUCKTRACKER_IDLE_AFTER", "PT10M")
	t.Setenv("TRUCKTRACKER_STOPPED_AFTER", "not-a-duration")
	t.Setenv("TRUCKTRACKER_PUSH_INTERVAL", "PT2S")
	t.Setenv("TRUCKTRACKER_SNAPSHOT_CACHE_TTL", "")

	config := GetConfig()

	assert.Equal(t, 10*time.Minute, config.IdleAfter)
	assert.Equal(t, time.Hour, config.StoppedAfter)
	assert.Equal(t, 2*time.Second, config.PushInterval)
	assert.Equal(t, 5*time.Second, config.SnapshotCacheTTL)
}

func TestGetConfigRejectsNonPositiveDurations(t *testing.T) {
	t.Setenv("TRUCKTRACKER_IDLE_AFTER", "PT0S")
	t.Setenv("TRUCKTRACKER_STOPPED_AFTER", "PT0M")
	t.Setenv("TRUCKTRACKER_PUSH_INTERVAL", "PT0S")
	t.Setenv("TRUCKTRACKER_SNAPSHOT_CACHE_TTL", "PT0S")

	config := GetConfig()

	assert.Equal(t, 30*time.Minute, config.IdleAfter)
	assert.Equal(t, time.Hour, config.StoppedAfter)
	assert.Equal(t, 5*time.Second, config.PushInterval)
	assert.Equal(t, time.Duration(0), config.SnapshotCacheTTL)
}
