package repository

import (
	"context"
	"fmt"

	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 100

type SheetRecordRepository struct {
	db *storage.Postgres
}

func NewSheetRecordRepository(db *storage.Postgres) *SheetRecordRepository {
	return &SheetRecordRepository{db: db}
}

// UpsertBatch writes records in fixed-size batches, each in its own
// transaction keyed on row_key. A failing batch does not roll back the
// batches already committed; a multi-thousand-row sync is allowed to
// partially apply and be re-run.
func (r *SheetRecordRepository) UpsertBatch(ctx context.Context, records []models.SheetRecord) (int, error) {
	written := 0

	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "row_key"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"dispatch_date", "origin", "to_dest_station_name",
					"to_number", "to_parcel_quantity", "loaded_timestamp",
					"operator_ops_id", "operator_name", "departure_timestamp",
					"truck_size", "vehicle_number", "driver_name",
					"raw_payload", "updated_at",
				}),
			}).Create(&batch).Error
		})
		if err != nil {
			return written, fmt.Errorf("upsert batch at row %d: %w", start, err)
		}

		written += len(batch)
	}

	return written, nil
}

func (r *SheetRecordRepository) List(ctx context.Context, tripNumber string, limit int) ([]models.SheetRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := r.db.DB.WithContext(ctx).Model(&models.SheetRecord{})
	if tripNumber != "" {
		query = query.Where("trip_number = ?", tripNumber)
	}

	var records []models.SheetRecord
	err := query.
		Order("updated_at DESC").
		Limit(limit).
		Find(&records).Error

	return records, err
}
