package spatialworker

import (
	"github.com/travigo/truck-tracker/pkg/fleet"
)

type MessageType string

const (
	MessageSeed  MessageType = "seed"
	MessageQuery MessageType = "query"
)

// Message is the only way into the worker. Seed messages carry a []fleet.VehicleFeature payload,
// query messages a QueryPayload. Anything else is ignored.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

type QueryPayload struct {
	Sequence uint64     `json:"sequence"`
	BBox     [4]float64 `json:"bbox"`
	Zoom     int        `json:"zoom"`
}

// Response answers exactly one query, echoing its sequence
type Response struct {
	Sequence uint64
	Features []fleet.VehicleFeature
}

func SeedMessage(features []fleet.VehicleFeature) Message {
	return Message{Type: MessageSeed, Payload: features}
}

func QueryMessage(sequence uint64, viewport fleet.ViewportState) Message {
	return Message{
		Type: MessageQuery,
		Payload: QueryPayload{
			Sequence: sequence,
			BBox:     fleet.BBoxFromBound(viewport.Bounds),
			Zoom:     viewport.Zoom,
		},
	}
}
