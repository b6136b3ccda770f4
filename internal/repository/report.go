package repository

import (
	"context"
	"time"

	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportRepository struct {
	db *storage.Postgres
}

func NewReportRepository(db *storage.Postgres) *ReportRepository {
	return &ReportRepository{db: db}
}

// InsertBatch writes all reports in one transaction. The submission
// endpoint treats a batch as a single Ops-PIC unit: either every row
// lands or none do.
func (r *ReportRepository) InsertBatch(ctx context.Context, reports []models.DispatchReport) error {
	if len(reports) == 0 {
		return nil
	}
	return r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&reports).Error
	})
}

type ReportFilter struct {
	ClusterName string
	Region      string
	Status      string
	From        time.Time
	To          time.Time
	Limit       int
	Offset      int
}

func (r *ReportRepository) List(ctx context.Context, filter ReportFilter) ([]models.DispatchReport, int64, error) {
	query := r.db.DB.WithContext(ctx).Model(&models.DispatchReport{})

	if filter.ClusterName != "" {
		query = query.Where("cluster_name = ?", filter.ClusterName)
	}
	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if !filter.From.IsZero() {
		query = query.Where("docked_time >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("docked_time < ?", filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var reports []models.DispatchReport
	err := query.
		Order("docked_time DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&reports).Error

	return reports, total, err
}

func (r *ReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.DispatchReport, error) {
	var report models.DispatchReport
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&report).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &report, err
}

func (r *ReportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.DispatchReport{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *ReportRepository) CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.DispatchReport{}).
		Where("docked_time >= ? AND docked_time < ?", from, to).
		Count(&count).Error

	return count, err
}

func (r *ReportRepository) SumParcelsLoaded(ctx context.Context, from, to time.Time) (int64, error) {
	var total *int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.DispatchReport{}).
		Where("docked_time >= ? AND docked_time < ?", from, to).
		Select("SUM(total_oid_loaded)").
		Scan(&total).Error

	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

func (r *ReportRepository) CountDeparted(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.DispatchReport{}).
		Where("docked_time >= ? AND docked_time < ? AND depart_time IS NOT NULL", from, to).
		Count(&count).Error

	return count, err
}

type RegionCount struct {
	Region string `json:"region"`
	Count  int64  `json:"count"`
}

func (r *ReportRepository) CountByRegion(ctx context.Context, from, to time.Time) ([]RegionCount, error) {
	var rows []RegionCount
	err := r.db.DB.WithContext(ctx).
		Model(&models.DispatchReport{}).
		Where("docked_time >= ? AND docked_time < ?", from, to).
		Select("region, COUNT(*) as count").
		Group("region").
		Order("count DESC").
		Scan(&rows).Error

	return rows, err
}

func (r *ReportRepository) CountDistinctTrips(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.DispatchReport{}).
		Where("docked_time >= ? AND docked_time < ? AND lh_trip IS NOT NULL", from, to).
		Distinct("lh_trip").
		Count(&count).Error

	return count, err
}
