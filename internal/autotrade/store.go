package autotrade

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// snapshotRow is the single-row table mirroring the loop configuration.
type snapshotRow struct {
	ID        uint `gorm:"primarykey"`
	UpdatedAt time.Time

	StockCode    string
	Strategy     string
	FundingMode  string
	Amount       float64
	PollInterval int
	Running      bool
}

func (snapshotRow) TableName() string { return "auto_trade_snapshots" }

// SnapshotModel is registered with the shared database migration.
func SnapshotModel() any { return &snapshotRow{} }

// GormSnapshotStore keeps the snapshot in the brokerage database so it
// survives restarts.
type GormSnapshotStore struct {
	db *gorm.DB
}

func NewGormSnapshotStore(db *gorm.DB) *GormSnapshotStore {
	return &GormSnapshotStore{db: db}
}

func (s *GormSnapshotStore) Save(snap Snapshot) error {
	row := snapshotRow{
		ID:           1,
		StockCode:    snap.Config.StockCode,
		Strategy:     snap.Config.Strategy,
		FundingMode:  string(snap.Config.Funding),
		Amount:       snap.Config.Amount,
		PollInterval: snap.Config.PollInterval,
		Running:      snap.Running,
	}
	if err := s.db.Save(&row).Error; err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *GormSnapshotStore) Load() (*Snapshot, error) {
	var row snapshotRow
	err := s.db.First(&row, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return &Snapshot{
		Config: Config{
			StockCode:    row.StockCode,
			Strategy:     row.Strategy,
			Funding:      FundingMode(row.FundingMode),
			Amount:       row.Amount,
			PollInterval: row.PollInterval,
		},
		Running: row.Running,
	}, nil
}

func (s *GormSnapshotStore) Clear() error {
	if err := s.db.Delete(&snapshotRow{}, 1).Error; err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
