// Package db persists cycle.Report events to MySQL via GORM, adapting the
// teacher's AssetSnapshotRecord/MySQLRecorder
// (internal/db/transaction_recorder.go) onto the mint/pool/withdraw/PnL
// domain. Lamport and PnL fields fit in int64/uint64 directly, so unlike
// the teacher's big.Int-as-varchar columns this schema uses plain
// BIGINT/BIGINT UNSIGNED columns.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/blackhole-labs/solcycle/internal/cycle"
)

// CycleSnapshotRecord is the database model for one cycle.Report event.
type CycleSnapshotRecord struct {
	ID                uint          `gorm:"primaryKey;autoIncrement"`
	Timestamp         time.Time     `gorm:"index;not null"`
	Phase             int           `gorm:"not null;comment:cycle.Phase as integer"`
	ContractAddress   string        `gorm:"type:varchar(64);index"`
	Mint              string        `gorm:"type:varchar(64)"`
	Pool              string        `gorm:"type:varchar(64)"`
	TokenAmountUI     int64         `gorm:"not null"`
	WsolAmountSOL     float64       `gorm:"not null"`
	SeedLamports      sql.NullInt64 `gorm:"type:bigint unsigned"`
	VaultLamports     sql.NullInt64 `gorm:"type:bigint unsigned"`
	PnLLamports       sql.NullInt64 `gorm:"type:bigint"`
	WithdrawSignature string        `gorm:"type:varchar(128)"`
	Err               string        `gorm:"type:text"`
	CreatedAt         time.Time     `gorm:"autoCreateTime"`
	UpdatedAt         time.Time     `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (CycleSnapshotRecord) TableName() string {
	return "cycle_snapshots"
}

// MySQLCycleRecorder persists cycle.Report events via GORM/MySQL.
type MySQLCycleRecorder struct {
	db *gorm.DB
}

// NewMySQLCycleRecorder connects to dsn and migrates the schema.
// dsn format: "user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
func NewMySQLCycleRecorder(dsn string) (*MySQLCycleRecorder, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to mysql: %w", err)
	}
	return NewMySQLCycleRecorderWithDB(db)
}

// NewMySQLCycleRecorderWithDB wraps an existing GORM DB instance.
func NewMySQLCycleRecorderWithDB(db *gorm.DB) (*MySQLCycleRecorder, error) {
	if err := db.AutoMigrate(&CycleSnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("db: migrate schema: %w", err)
	}
	return &MySQLCycleRecorder{db: db}, nil
}

// RecordReport persists one cycle.Report as a CycleSnapshotRecord. This is
// the cycle.ReportSink this package exposes to the orchestrator.
func (r *MySQLCycleRecorder) RecordReport(report cycle.Report) error {
	record := CycleSnapshotRecord{
		Timestamp:         report.Timestamp,
		Phase:             int(report.Phase),
		ContractAddress:   report.ContractAddress,
		Mint:              report.Mint,
		Pool:              report.Pool,
		TokenAmountUI:     report.TokenAmountUI,
		WsolAmountSOL:     report.WsolAmountSOL,
		SeedLamports:      nullInt64FromPtrU64(report.SeedLamports),
		VaultLamports:     nullInt64FromPtrU64(report.VaultLamports),
		PnLLamports:       nullInt64FromPtrI64(report.PnLLamports),
		WithdrawSignature: report.WithdrawSignature,
		Err:               report.Err,
	}

	if result := r.db.Create(&record); result.Error != nil {
		return fmt.Errorf("db: record cycle report: %w", result.Error)
	}
	return nil
}

// GetDB returns the underlying GORM DB instance for advanced queries.
func (r *MySQLCycleRecorder) GetDB() *gorm.DB { return r.db }

// Close closes the database connection.
func (r *MySQLCycleRecorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("db: get underlying db: %w", err)
	}
	return sqlDB.Close()
}

// GetLatestSnapshot retrieves the most recent snapshot from the database.
func (r *MySQLCycleRecorder) GetLatestSnapshot() (*CycleSnapshotRecord, error) {
	var record CycleSnapshotRecord
	if result := r.db.Order("timestamp DESC").First(&record); result.Error != nil {
		return nil, fmt.Errorf("db: get latest snapshot: %w", result.Error)
	}
	return &record, nil
}

// GetSnapshotsByTimeRange retrieves snapshots within [start, end].
func (r *MySQLCycleRecorder) GetSnapshotsByTimeRange(start, end time.Time) ([]CycleSnapshotRecord, error) {
	var records []CycleSnapshotRecord
	result := r.db.Where("timestamp BETWEEN ? AND ?", start, end).
		Order("timestamp ASC").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("db: get snapshots by time range: %w", result.Error)
	}
	return records, nil
}

// GetSnapshotsByPhase retrieves all snapshots for a specific cycle phase.
func (r *MySQLCycleRecorder) GetSnapshotsByPhase(phase cycle.Phase) ([]CycleSnapshotRecord, error) {
	var records []CycleSnapshotRecord
	result := r.db.Where("phase = ?", int(phase)).
		Order("timestamp ASC").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("db: get snapshots by phase: %w", result.Error)
	}
	return records, nil
}

// CountSnapshots returns the total number of snapshots in the database.
func (r *MySQLCycleRecorder) CountSnapshots() (int64, error) {
	var count int64
	if result := r.db.Model(&CycleSnapshotRecord{}).Count(&count); result.Error != nil {
		return 0, fmt.Errorf("db: count snapshots: %w", result.Error)
	}
	return count, nil
}

func nullInt64FromPtrU64(v *uint64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullInt64FromPtrI64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
