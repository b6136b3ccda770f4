package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/repository"
	"github.com/fleetops/dispatch-board/internal/storage"
)

const lookupCacheTTL = 10 * time.Minute

// LookupService serves the hub/cluster reference data behind a redis
// read-through cache; the tables change rarely and every dashboard
// page hits them.
type LookupService struct {
	hubs  *repository.HubRepository
	redis *storage.RedisClient
}

func NewLookupService(hubs *repository.HubRepository, redis *storage.RedisClient) *LookupService {
	return &LookupService{hubs: hubs, redis: redis}
}

func (s *LookupService) Clusters(ctx context.Context) ([]models.Cluster, error) {
	var clusters []models.Cluster
	if s.cacheGet(ctx, "lookup:clusters", &clusters) {
		return clusters, nil
	}

	clusters, err := s.hubs.ListClusters(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, "lookup:clusters", clusters)
	return clusters, nil
}

func (s *LookupService) Hubs(ctx context.Context, clusterCode string) ([]models.Hub, error) {
	cacheKey := fmt.Sprintf("lookup:hubs:%s", clusterCode)

	var hubs []models.Hub
	if s.cacheGet(ctx, cacheKey, &hubs) {
		return hubs, nil
	}

	hubs, err := s.hubs.ListHubs(ctx, clusterCode)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, cacheKey, hubs)
	return hubs, nil
}

// Hub resolves one hub by code; nil when unknown.
func (s *LookupService) Hub(ctx context.Context, code string) (*models.Hub, error) {
	cacheKey := fmt.Sprintf("lookup:hub:%s", code)

	var hub models.Hub
	if s.cacheGet(ctx, cacheKey, &hub) {
		return &hub, nil
	}

	found, err := s.hubs.FindHub(ctx, code)
	if err != nil || found == nil {
		return found, err
	}

	s.cacheSet(ctx, cacheKey, found)
	return found, nil
}

func (s *LookupService) cacheGet(ctx context.Context, key string, dst interface{}) bool {
	if s.redis == nil {
		return false
	}
	cached, err := s.redis.Get(ctx, key)
	if err != nil {
		if !storage.IsNil(err) {
			log.Printf("lookup cache read failed: %v", err)
		}
		return false
	}
	return json.Unmarshal([]byte(cached), dst) == nil
}

func (s *LookupService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.redis == nil {
		return
	}
	if payload, err := json.Marshal(value); err == nil {
		s.redis.Set(ctx, key, payload, lookupCacheTTL)
	}
}
