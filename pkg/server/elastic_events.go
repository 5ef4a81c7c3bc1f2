package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/elastic_client"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

type PushElasticEvent struct {
	Timestamp time.Time

	Car      string
	DateFrom string
	DateTo   string

	Size int

	Success    bool
	FailReason string
}

func indexPushEvent(filters fleet.ServerFilters, size int, pushErr error) {
	event := PushElasticEvent{
		Timestamp: time.Now(),
		Car:       filters.Car,
		DateFrom:  filters.DateFrom,
		DateTo:    filters.DateTo,
		Size:      size,
		Success:   pushErr == nil,
	}
	if pushErr != nil {
		event.FailReason = pushErr.Error()
	}

	document, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode push event")
		return
	}

	elastic_client.IndexRequest(fmt.Sprintf("trucktracker-push-events-%d", time.Now().Year()), bytes.NewReader(document))
}
