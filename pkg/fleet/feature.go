package fleet

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/paulmach/orb"
)

// VehicleFeature is the last known state of a single vehicle
type VehicleFeature struct {
	ID          string    `json:"id" groups:"basic"`
	Coordinates orb.Point `json:"coordinates" groups:"basic"`
	Status      Status    `json:"status" groups:"basic"`

	Timestamp  Label `json:"timestamp,omitempty" groups:"detailed"`
	LastUpdate Label `json:"last_update,omitempty" groups:"detailed"`
}

func (f VehicleFeature) Longitude() float64 {
	return f.Coordinates.Lon()
}

func (f VehicleFeature) Latitude() float64 {
	return f.Coordinates.Lat()
}

// Label is an opaque display string. The server sends some labels as numbers (unix timestamps)
// so both JSON strings and numbers are accepted and kept verbatim.
type Label string

func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*l = Label(value)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*l = Label(number.String())

	return nil
}

func LabelFromUnix(timestamp int64) Label {
	return Label(strconv.FormatInt(timestamp, 10))
}
