package tracking

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	iso8601 "github.com/senseyeio/duration"
	"github.com/travigo/truck-tracker/pkg/util"
)

// a zero snapshot cache TTL disables the cache
const snapshotCacheTTLVariable = "TRUCKTRACKER_SNAPSHOT_CACHE_TTL"

type Config struct {
	// IdleAfter is how old the latest report must be before a vehicle counts as idle
	IdleAfter time.Duration
	// StoppedAfter is how old the latest report must be before a vehicle counts as stopped
	StoppedAfter time.Duration

	PushInterval     time.Duration
	SnapshotCacheTTL time.Duration
}

var defaultConfig = Config{
	IdleAfter:        30 * time.Minute,
	StoppedAfter:     1 * time.Hour,
	PushInterval:     5 * time.Second,
	SnapshotCacheTTL: 5 * time.Second,
}

func DefaultConfig() Config {
	return defaultConfig
}

// GetConfig reads the ISO-8601 duration overrides, keeping the default for anything unparsable.
// Thresholds and the push interval must be positive.
func GetConfig() Config {
	config := defaultConfig

	env := util.GetEnvironmentVariables()

	overrides := map[string]*time.Duration{
		"TRUCKTRACKER_IDLE_AFTER":    &config.IdleAfter,
		"TRUCKTRACKER_STOPPED_AFTER": &config.StoppedAfter,
		"TRUCKTRACKER_PUSH_INTERVAL": &config.PushInterval,
		snapshotCacheTTLVariable:     &config.SnapshotCacheTTL,
	}

	for name, target := range overrides {
		value := env[name]
		if value == "" {
			continue
		}

		parsed, err := ParseISODuration(value)
		if err == nil && parsed <= 0 && name != snapshotCacheTTLVariable {
			err = fmt.Errorf("duration must be positive, got %s", parsed)
		}
		if err != nil {
			log.Error().Err(err).Str("variable", name).Str("value", value).Msg("Ignoring invalid duration")
			continue
		}

		*target = parsed
	}

	if config.StoppedAfter < config.IdleAfter {
		log.Warn().
			Dur("idle", config.IdleAfter).
			Dur("stopped", config.StoppedAfter).
			Msg("Stopped threshold is shorter than idle threshold, vehicles will never be idle")
	}

	return config
}

// ParseISODuration converts an ISO-8601 duration such as PT30M into a time.Duration
func ParseISODuration(value string) (time.Duration, error) {
	duration, err := iso8601.ParseISO8601(value)
	if err != nil {
		return 0, err
	}

	reference := time.Unix(0, 0).UTC()

	return duration.Shift(reference).Sub(reference), nil
}
