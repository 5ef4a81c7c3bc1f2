package ingest

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/travigo/truck-tracker/pkg/tracking"
)

const QueueName = "tracking-queue"

var validate = validator.New()

// PositionReport is one vehicle position as published onto the ingest queue
type PositionReport struct {
	Car       string  `json:"car" csv:"car" validate:"required"`
	Latitude  float64 `json:"latitude" csv:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" csv:"longitude" validate:"longitude"`
	Timestamp int64   `json:"timestamp" csv:"timestamp" validate:"gt=0"`
	// Date defaults to the UTC day of Timestamp
	Date string `json:"date,omitempty" csv:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (r PositionReport) Validate() error {
	return validate.Struct(r)
}

func (r PositionReport) ToRecord() (tracking.TrackingRecord, error) {
	date := time.Unix(r.Timestamp, 0).UTC()
	if r.Date != "" {
		parsed, err := time.Parse(tracking.DateLayout, r.Date)
		if err != nil {
			return tracking.TrackingRecord{}, fmt.Errorf("parse date %q: %w", r.Date, err)
		}
		date = parsed
	}

	return tracking.TrackingRecord{
		Car:       r.Car,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timestamp: r.Timestamp,
		Date:      time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
	}, nil
}
