// Package spatialworker answers bounding box queries against its own copy of the filtered
// features. It runs in its own goroutine and is reachable only through Post; messages are handled
// strictly in the order they were posted.
package spatialworker

import (
	"context"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/dashboard/mailbox"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

type Worker struct {
	mailbox *mailbox.Mailbox[Message]
	results chan Response

	// only touched by the Run goroutine
	mirror []fleet.VehicleFeature
}

func New(resultsBuffer int) *Worker {
	return &Worker{
		mailbox: mailbox.New[Message](),
		results: make(chan Response, resultsBuffer),
	}
}

// Post appends the message to the mailbox and never blocks
func (w *Worker) Post(message Message) {
	w.mailbox.Post(message)
}

func (w *Worker) Seed(features []fleet.VehicleFeature) {
	w.Post(SeedMessage(features))
}

func (w *Worker) Query(sequence uint64, viewport fleet.ViewportState) {
	w.Post(QueryMessage(sequence, viewport))
}

func (w *Worker) Results() <-chan Response {
	return w.results
}

func (w *Worker) Run(ctx context.Context) error {
	log.Debug().Msg("Spatial worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.mailbox.Signal():
		}

		for _, message := range w.mailbox.Drain() {
			response := w.handle(message)
			if response == nil {
				continue
			}

			select {
			case w.results <- *response:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (w *Worker) handle(message Message) *Response {
	switch message.Type {
	case MessageSeed:
		features, ok := message.Payload.([]fleet.VehicleFeature)
		if !ok {
			log.Debug().Str("type", string(message.Type)).Msg("Ignoring seed with malformed payload")
			return nil
		}
		w.seed(features)

		return nil
	case MessageQuery:
		query, ok := message.Payload.(QueryPayload)
		if !ok {
			log.Debug().Str("type", string(message.Type)).Msg("Ignoring query with malformed payload")
			return nil
		}

		return &Response{
			Sequence: query.Sequence,
			Features: w.query(query),
		}
	default:
		log.Debug().Str("type", string(message.Type)).Msg("Ignoring unknown worker message")
		return nil
	}
}

func (w *Worker) seed(features []fleet.VehicleFeature) {
	var mirror []fleet.VehicleFeature
	if err := copier.CopyWithOption(&mirror, &features, copier.Option{DeepCopy: true}); err != nil {
		log.Error().Err(err).Msg("Failed to copy seed features")
		return
	}

	w.mirror = mirror
}

func (w *Worker) query(query QueryPayload) []fleet.VehicleFeature {
	bound := fleet.BoundFromBBox(query.BBox)

	matching := []fleet.VehicleFeature{}
	for _, feature := range w.mirror {
		if bound.Contains(feature.Coordinates) {
			matching = append(matching, feature)
		}
	}

	return matching
}
