package tracking

import (
	"time"
)

const DateLayout = "2006-01-02"

// TrackingRecord is a single position report as stored in tracking_data2
type TrackingRecord struct {
	Car       string    `gorm:"column:car" json:"car" groups:"basic"`
	Latitude  float64   `gorm:"column:latitude" json:"latitude" groups:"basic"`
	Longitude float64   `gorm:"column:longitude" json:"longitude" groups:"basic"`
	Timestamp int64     `gorm:"column:timestamp" json:"timestamp" groups:"basic"`
	Date      time.Time `gorm:"column:date;type:date" json:"date" groups:"detailed"`
}

func (TrackingRecord) TableName() string {
	return "tracking_data2"
}

func (r TrackingRecord) DateString() string {
	if r.Date.IsZero() {
		return time.Unix(r.Timestamp, 0).Format(DateLayout)
	}

	return r.Date.Format(DateLayout)
}

// LastUpdate renders the record time in the server's local zone
func (r TrackingRecord) LastUpdate() string {
	return time.Unix(r.Timestamp, 0).Format(time.DateTime)
}
