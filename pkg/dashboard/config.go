package dashboard

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	iso8601 "github.com/senseyeio/duration"
	"github.com/travigo/truck-tracker/pkg/dashboard/connection"
	"github.com/travigo/truck-tracker/pkg/fleet"
	"github.com/travigo/truck-tracker/pkg/util"
	"gopkg.in/yaml.v3"
)

const endpointVariable = "TRUCKTRACKER_DASHBOARD_ENDPOINT"

var validate = validator.New()

type Config struct {
	Endpoint string `yaml:"endpoint" validate:"required,url"`
	Listen   string `yaml:"listen" validate:"required"`

	MaxRetries int `yaml:"max_retries" validate:"gte=1"`
	// ReconnectDelay is an ISO-8601 duration such as PT3S
	ReconnectDelay string `yaml:"reconnect_delay" validate:"required"`

	Filters  FilterConfig   `yaml:"filters"`
	Viewport ViewportConfig `yaml:"viewport"`
}

type FilterConfig struct {
	// Statuses left out of the file enables every status
	Statuses []string `yaml:"statuses" validate:"omitempty,dive,oneof=moving idle stopped"`
	Vehicles string   `yaml:"vehicles"`
	DateFrom string   `yaml:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string   `yaml:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

type ViewportConfig struct {
	// Bounds is "west,south,east,north", empty for the whole world
	Bounds string `yaml:"bounds"`
	Zoom   int    `yaml:"zoom" validate:"gte=0,lte=22"`
}

func DefaultConfig() Config {
	return Config{
		Endpoint:       "ws://localhost:8000/ws",
		Listen:         ":8010",
		MaxRetries:     connection.DefaultMaxRetries,
		ReconnectDelay: "PT3S",
		Viewport: ViewportConfig{
			Zoom: fleet.WorldViewport().Zoom,
		},
	}
}

func LoadConfig(path string) (Config, error) {
	if path == "" {
		return ParseConfig(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read dashboard config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes YAML over the defaults, applies environment overrides and validates the result
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("decode dashboard config: %w", err)
	}

	env := util.GetEnvironmentVariables()
	if env[endpointVariable] != "" {
		config.Endpoint = env[endpointVariable]
	}

	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid dashboard config: %w", err)
	}

	if _, err := config.ReconnectDelayDuration(); err != nil {
		return Config{}, err
	}
	if _, err := config.InitialViewport(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) ConnectionConfig() (connection.Config, error) {
	delay, err := c.ReconnectDelayDuration()
	if err != nil {
		return connection.Config{}, err
	}

	return connection.Config{
		Endpoint:       c.Endpoint,
		MaxRetries:     c.MaxRetries,
		ReconnectDelay: delay,
	}, nil
}

func (c Config) ReconnectDelayDuration() (time.Duration, error) {
	duration, err := iso8601.ParseISO8601(c.ReconnectDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid reconnect_delay %q: %w", c.ReconnectDelay, err)
	}

	start := time.Now()
	delay := duration.Shift(start).Sub(start)
	if delay <= 0 {
		return 0, fmt.Errorf("invalid reconnect_delay %q: must be positive", c.ReconnectDelay)
	}

	return delay, nil
}

func (c Config) InitialFilters() fleet.FilterState {
	filters := fleet.DefaultFilterState()

	if c.Filters.Statuses != nil {
		filters.Statuses = fleet.StatusSet{}
		for _, status := range c.Filters.Statuses {
			filters.Statuses[fleet.Status(status)] = true
		}
	}

	filters.VehicleQuery = c.Filters.Vehicles
	filters.DateFrom = c.Filters.DateFrom
	filters.DateTo = c.Filters.DateTo

	return filters
}

func (c Config) InitialViewport() (fleet.ViewportState, error) {
	if c.Viewport.Bounds == "" {
		viewport := fleet.WorldViewport()
		viewport.Zoom = c.Viewport.Zoom
		return viewport, nil
	}

	bounds, err := fleet.ParseBounds(c.Viewport.Bounds)
	if err != nil {
		return fleet.ViewportState{}, fmt.Errorf("invalid viewport bounds: %w", err)
	}

	return fleet.ViewportState{Bounds: bounds, Zoom: c.Viewport.Zoom}, nil
}
