package service

import (
	"context"
	"fmt"

	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/sheets"
)

// SheetFetcher is the live-spreadsheet fallback used when a sync
// request posts no rows of its own.
type SheetFetcher interface {
	FetchValues(ctx context.Context) ([][]interface{}, error)
}

// SheetRecordStore upserts parsed rows on their idempotency key and
// serves the ingested-records view.
type SheetRecordStore interface {
	UpsertBatch(ctx context.Context, records []models.SheetRecord) (int, error)
	List(ctx context.Context, tripNumber string, limit int) ([]models.SheetRecord, error)
}

type SyncService struct {
	records SheetRecordStore
	fetcher SheetFetcher
}

func NewSyncService(records SheetRecordStore, fetcher SheetFetcher) *SyncService {
	return &SyncService{records: records, fetcher: fetcher}
}

type SyncResult struct {
	Synced  int `json:"synced"`
	Ignored int `json:"ignored"`
}

// Sync ingests posted rows, or the live sheet when none are posted.
// Rows without a resolvable trip number are counted as ignored, not
// failed; everything parseable is upserted on its row key.
func (s *SyncService) Sync(ctx context.Context, rows []interface{}, headers []interface{}) (*SyncResult, error) {
	if len(rows) == 0 {
		values, err := s.fetcher.FetchValues(ctx)
		if err != nil {
			return nil, err
		}
		rows = make([]interface{}, 0, len(values))
		for _, v := range values {
			rows = append(rows, []interface{}(v))
		}
	}

	rawRows := sheets.RawRows(rows, headers)

	var records []models.SheetRecord
	ignored := 0
	for _, raw := range rawRows {
		record := sheets.ParseRow(raw)
		if record == nil {
			ignored++
			continue
		}
		records = append(records, *record)
	}

	synced, err := s.records.UpsertBatch(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("sync stored %d rows before failing: %w", synced, err)
	}

	return &SyncResult{Synced: synced, Ignored: ignored}, nil
}

func (s *SyncService) Records(ctx context.Context, tripNumber string, limit int) ([]models.SheetRecord, error) {
	return s.records.List(ctx, tripNumber, limit)
}
