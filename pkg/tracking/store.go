package tracking

import (
	"context"
	"strings"

	"github.com/travigo/truck-tracker/pkg/fleet"
	"gorm.io/gorm"
)

const insertBatchSize = 500

type Store interface {
	// LatestPositions returns the newest record of every car matching the filters
	LatestPositions(ctx context.Context, filters fleet.ServerFilters) ([]TrackingRecord, error)
	Vehicles(ctx context.Context) ([]string, error)
	// History returns every record of one car, newest first
	History(ctx context.Context, car string, dateFrom string, dateTo string) ([]TrackingRecord, error)
	Insert(ctx context.Context, records []TrackingRecord) error
}

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LatestPositions(ctx context.Context, filters fleet.ServerFilters) ([]TrackingRecord, error) {
	var records []TrackingRecord

	err := s.latestPositionsQuery(s.db.WithContext(ctx), filters).Find(&records).Error

	return records, err
}

func (s *PostgresStore) latestPositionsQuery(tx *gorm.DB, filters fleet.ServerFilters) *gorm.DB {
	tx = tx.Model(&TrackingRecord{}).
		Select(`DISTINCT ON (car) car, latitude, longitude, "timestamp", date`)

	// a comma makes the filter a list of exact ids, otherwise it is a single exact id
	if strings.Contains(filters.Car, ",") {
		if cars := filters.CarList(); len(cars) > 0 {
			tx = tx.Where("car IN ?", cars)
		}
	} else if filters.Car != "" {
		tx = tx.Where("car = ?", filters.Car)
	}

	tx = whereDates(tx, filters.DateFrom, filters.DateTo)

	return tx.Order(`car, "timestamp" DESC`)
}

func (s *PostgresStore) Vehicles(ctx context.Context) ([]string, error) {
	var cars []string

	err := s.vehiclesQuery(s.db.WithContext(ctx)).Pluck("car", &cars).Error

	return cars, err
}

func (s *PostgresStore) vehiclesQuery(tx *gorm.DB) *gorm.DB {
	return tx.Model(&TrackingRecord{}).Distinct("car").Order("car")
}

func (s *PostgresStore) History(ctx context.Context, car string, dateFrom string, dateTo string) ([]TrackingRecord, error) {
	var records []TrackingRecord

	err := s.historyQuery(s.db.WithContext(ctx), car, dateFrom, dateTo).Find(&records).Error

	return records, err
}

func (s *PostgresStore) historyQuery(tx *gorm.DB, car string, dateFrom string, dateTo string) *gorm.DB {
	tx = tx.Model(&TrackingRecord{}).Where("car = ?", car)
	tx = whereDates(tx, dateFrom, dateTo)

	return tx.Order(`"timestamp" DESC`)
}

func (s *PostgresStore) Insert(ctx context.Context, records []TrackingRecord) error {
	if len(records) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).CreateInBatches(records, insertBatchSize).Error
}

func whereDates(tx *gorm.DB, dateFrom string, dateTo string) *gorm.DB {
	if dateFrom != "" {
		tx = tx.Where("date >= ?", dateFrom)
	}
	if dateTo != "" {
		tx = tx.Where("date <= ?", dateTo)
	}

	return tx
}
