package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/adjust/rmq/v5"
	"github.com/gocarina/gocsv"
)

// ReadCSV reads position reports with a header row of car,latitude,longitude,timestamp[,date]
func ReadCSV(reader io.Reader) ([]PositionReport, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	var reports []PositionReport
	if err := gocsv.UnmarshalCSV(csvReader, &reports); err != nil {
		return nil, err
	}

	return reports, nil
}

// Publish validates every report and publishes the valid ones, returning how many were skipped
func Publish(queue rmq.Queue, reports []PositionReport) (int, error) {
	var payloads [][]byte
	skipped := 0

	for _, report := range reports {
		if err := report.Validate(); err != nil {
			skipped++
			continue
		}

		payload, err := json.Marshal(report)
		if err != nil {
			return skipped, fmt.Errorf("encode report for %s: %w", report.Car, err)
		}
		payloads = append(payloads, payload)
	}

	if len(payloads) == 0 {
		return skipped, nil
	}

	return skipped, queue.PublishBytes(payloads...)
}
