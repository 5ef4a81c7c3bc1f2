package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/tracking"
)

type BatchConsumer struct {
	id    int
	store tracking.Store
}

func NewBatchConsumer(id int, store tracking.Store) *BatchConsumer {
	return &BatchConsumer{id: id, store: store}
}

func (consumer *BatchConsumer) Consume(batch rmq.Deliveries) {
	var records []tracking.TrackingRecord
	var accepted rmq.Deliveries

	for _, delivery := range batch {
		record, err := decodeDelivery(delivery.Payload())
		if err != nil {
			log.Error().Err(err).Int("consumer", consumer.id).Msg("Rejecting position report")

			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject position report")
			}
			continue
		}

		records = append(records, record)
		accepted = append(accepted, delivery)
	}

	if len(records) == 0 {
		return
	}

	startTime := time.Now()
	if err := consumer.store.Insert(context.Background(), records); err != nil {
		log.Error().Err(err).Int("Length", len(records)).Msg("Failed to insert position reports")

		for _, err := range accepted.Push() {
			log.Error().Err(err).Msg("Failed to push back position report")
		}
		return
	}
	log.Info().Int("Length", len(records)).Str("Time", time.Since(startTime).String()).Msg("Bulk insert")

	if ackErrors := accepted.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Error().Err(err).Msg("Failed to ack position report")
		}
	}
}

func decodeDelivery(payload string) (tracking.TrackingRecord, error) {
	var report PositionReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return tracking.TrackingRecord{}, err
	}

	if err := report.Validate(); err != nil {
		return tracking.TrackingRecord{}, err
	}

	return report.ToRecord()
}
