package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetops/dispatch-board/internal/cache"
	"github.com/fleetops/dispatch-board/internal/repository"
)

const kpiCacheTTL = 60 * time.Second

type KPIService struct {
	reports *repository.ReportRepository
	cache   cache.Store
}

func NewKPIService(reports *repository.ReportRepository, store cache.Store) *KPIService {
	return &KPIService{reports: reports, cache: store}
}

type KPISummary struct {
	From            time.Time                `json:"from"`
	To              time.Time                `json:"to"`
	TotalReports    int64                    `json:"total_reports"`
	ParcelsLoaded   int64                    `json:"parcels_loaded"`
	DistinctTrips   int64                    `json:"distinct_trips"`
	Departed        int64                    `json:"departed"`
	StillOnDock     int64                    `json:"still_on_dock"`
	RegionBreakdown []repository.RegionCount `json:"region_breakdown"`
}

// Summary aggregates the KPI view over a time range, memoized in the
// in-process cache. Ranges are truncated to the minute so repeated
// dashboard polls share one entry.
func (s *KPIService) Summary(ctx context.Context, from, to time.Time) (*KPISummary, error) {
	from = from.Truncate(time.Minute)
	to = to.Truncate(time.Minute)

	cacheKey := fmt.Sprintf("kpi:summary:%d:%d", from.Unix(), to.Unix())
	if cached, ok := s.cache.Get(cacheKey); ok {
		if summary, ok := cached.(*KPISummary); ok {
			return summary, nil
		}
	}

	summary := &KPISummary{From: from, To: to}

	total, err := s.reports.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.TotalReports = total

	if total > 0 {
		if summary.ParcelsLoaded, err = s.reports.SumParcelsLoaded(ctx, from, to); err != nil {
			return nil, err
		}
		if summary.DistinctTrips, err = s.reports.CountDistinctTrips(ctx, from, to); err != nil {
			return nil, err
		}
		if summary.Departed, err = s.reports.CountDeparted(ctx, from, to); err != nil {
			return nil, err
		}
		summary.StillOnDock = total - summary.Departed
		if summary.RegionBreakdown, err = s.reports.CountByRegion(ctx, from, to); err != nil {
			return nil, err
		}
	}

	s.cache.Set(cacheKey, summary, kpiCacheTTL)
	return summary, nil
}
