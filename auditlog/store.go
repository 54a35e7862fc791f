// Package auditlog persists universe security-change events so a run can
// be inspected after the fact — which symbols were added or removed and
// when. Grounded on the teacher's storage/sql.go (gorm.Open + connection
// pool tuning + AutoMigrate), repurposed from order bookkeeping to
// universe-change bookkeeping.
package auditlog

import (
	"time"

	"gorm.io/gorm"

	"github.com/marketfeed/ingest/model"
)

// Record is one persisted addition or removal from a universe
// reconciliation.
type Record struct {
	ID        int64 `gorm:"primaryKey"`
	Universe  string
	Ticker    string
	Action    string // "add" or "remove"
	Time      time.Time
}

// Store wraps a gorm.DB scoped to the Record table.
type Store struct {
	db *gorm.DB
}

// Open connects using dialect (e.g. glebarez/sqlite.Open(path)) and
// migrates the Record table, mirroring the teacher's FromSQL connection
// pool tuning for a store expected to live for the whole run.
func Open(dialect gorm.Dialector, opts ...gorm.Option) (*Store, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Append writes one model.SecurityChanges as a row per addition/removal.
func (s *Store) Append(changes model.SecurityChanges) error {
	var records []Record
	for _, sym := range changes.Additions {
		records = append(records, Record{Universe: changes.Universe, Ticker: sym.Ticker, Action: "add", Time: changes.Time})
	}
	for _, sym := range changes.Removals {
		records = append(records, Record{Universe: changes.Universe, Ticker: sym.Ticker, Action: "remove", Time: changes.Time})
	}
	if len(records) == 0 {
		return nil
	}
	return s.db.Create(&records).Error
}

// History returns every recorded change for universe, oldest first.
func (s *Store) History(universe string) ([]Record, error) {
	var records []Record
	result := s.db.Where("universe = ?", universe).Order("time asc").Find(&records)
	return records, result.Error
}
