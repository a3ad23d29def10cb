package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RyzenMagsino/Carwash/internal/application"
)

// TransactionModel is the GORM model for the append-only transactions table.
// booking_id is unique: recording the same completed booking twice is a no-op.
type TransactionModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingID     uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	BookingNumber string          `gorm:"not null;size:20"`
	CustomerName  string          `gorm:"not null;size:200"`
	PlateNumber   string          `gorm:"not null;size:20"`
	VehicleType   string          `gorm:"not null;size:20"`
	Items         json.RawMessage `gorm:"type:jsonb;not null"`
	TotalCents    int64           `gorm:"not null"`
	Team          string          `gorm:"size:100"`
	CompletedAt   time.Time       `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (TransactionModel) TableName() string {
	return "transactions"
}

// GormTransactionSink appends completed bookings to the transactions table.
type GormTransactionSink struct {
	db *gorm.DB
}

// NewGormTransactionSink creates a new GormTransactionSink.
func NewGormTransactionSink(db *gorm.DB) *GormTransactionSink {
	return &GormTransactionSink{db: db}
}

// RecordTransaction inserts the transaction, ignoring duplicates by booking id.
func (s *GormTransactionSink) RecordTransaction(ctx context.Context, record application.TransactionRecord) error {
	itemsJSON, err := json.Marshal(record.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction items: %w", err)
	}

	model := TransactionModel{
		ID:            uuid.New(),
		BookingID:     record.BookingID,
		BookingNumber: record.BookingNumber,
		CustomerName:  record.CustomerName,
		PlateNumber:   record.PlateNumber,
		VehicleType:   record.VehicleType,
		Items:         itemsJSON,
		TotalCents:    record.TotalCents,
		Team:          record.Team,
		CompletedAt:   record.CompletedAt,
		CreatedAt:     time.Now().UTC(),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to record transaction: %w", result.Error)
	}
	return nil
}
