package repository

import (
	"context"

	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/storage"
	"gorm.io/gorm"
)

type HubRepository struct {
	db *storage.Postgres
}

func NewHubRepository(db *storage.Postgres) *HubRepository {
	return &HubRepository{db: db}
}

func (r *HubRepository) ListClusters(ctx context.Context) ([]models.Cluster, error) {
	var clusters []models.Cluster
	err := r.db.DB.WithContext(ctx).
		Order("code ASC").
		Find(&clusters).Error

	return clusters, err
}

func (r *HubRepository) ListHubs(ctx context.Context, clusterCode string) ([]models.Hub, error) {
	query := r.db.DB.WithContext(ctx).Where("is_active = ?", true)
	if clusterCode != "" {
		query = query.Where("cluster_code = ?", clusterCode)
	}

	var hubs []models.Hub
	err := query.Order("code ASC").Find(&hubs).Error

	return hubs, err
}

func (r *HubRepository) FindHub(ctx context.Context, code string) (*models.Hub, error) {
	var hub models.Hub
	err := r.db.DB.WithContext(ctx).
		Where("code = ?", code).
		First(&hub).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &hub, err
}
