package service

import (
	"context"
	"testing"

	"github.com/fleetops/dispatch-board/internal/dispatch"
	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/repository"
	"github.com/google/uuid"
)

type fakeReportStore struct {
	inserted [][]models.DispatchReport
	byID     map[uuid.UUID]*models.DispatchReport
	statuses map[uuid.UUID]string
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{
		byID:     make(map[uuid.UUID]*models.DispatchReport),
		statuses: make(map[uuid.UUID]string),
	}
}

func (f *fakeReportStore) InsertBatch(ctx context.Context, reports []models.DispatchReport) error {
	f.inserted = append(f.inserted, reports)
	return nil
}

func (f *fakeReportStore) List(ctx context.Context, filter repository.ReportFilter) ([]models.DispatchReport, int64, error) {
	return nil, 0, nil
}

func (f *fakeReportStore) FindByID(ctx context.Context, id uuid.UUID) (*models.DispatchReport, error) {
	return f.byID[id], nil
}

func (f *fakeReportStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	f.statuses[id] = status
	return nil
}

func validSubmitRow() dispatch.RawRow {
	return dispatch.RawRow{
		"cluster_name":       "Cluster A",
		"station_name":       "Station 1",
		"region":             "North",
		"count_of_to":        "3",
		"total_oid_loaded":   float64(10),
		"dock_number":        "D1",
		"dock_confirmed":     true,
		"actual_docked_time": "2025-01-01T10:00:00Z",
		"assigned_ops_id":    "OPS123",
	}
}

func TestReportService_SubmitValidBatch(t *testing.T) {
	store := newFakeReportStore()
	svc := NewReportService(store)
	submitter := uuid.New()

	result, err := svc.Submit(context.Background(), []dispatch.RawRow{validSubmitRow(), validSubmitRow()}, submitter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK || result.Submitted != 2 {
		t.Fatalf("expected 2 submitted, got %+v", result)
	}
	if len(store.inserted) != 1 || len(store.inserted[0]) != 2 {
		t.Fatalf("expected one batch of 2 inserts, got %v", store.inserted)
	}
	for _, report := range store.inserted[0] {
		if report.SubmittedBy == nil || *report.SubmittedBy != submitter {
			t.Fatalf("expected submitter stamped on every row")
		}
	}
	for i, rr := range result.Results {
		if rr.Status != "created" || rr.RowIndex != i {
			t.Fatalf("unexpected row result %+v", rr)
		}
	}
}

func TestReportService_SubmitAllOrNothing(t *testing.T) {
	store := newFakeReportStore()
	svc := NewReportService(store)

	rows := []dispatch.RawRow{validSubmitRow(), {}}
	result, err := svc.Submit(context.Background(), rows, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.OK {
		t.Fatalf("batch with a bad row must fail")
	}
	if len(store.inserted) != 0 {
		t.Fatalf("no rows may be inserted when any row fails, got %v", store.inserted)
	}
	if len(result.Results) != 1 || result.Results[0].RowIndex != 1 || result.Results[0].Status != "error" {
		t.Fatalf("expected single error result for row 1, got %+v", result.Results)
	}
}

func TestReportService_SubmitRowCap(t *testing.T) {
	svc := NewReportService(newFakeReportStore())

	rows := make([]dispatch.RawRow, MaxBatchRows+1)
	for i := range rows {
		rows[i] = validSubmitRow()
	}

	if _, err := svc.Submit(context.Background(), rows, uuid.New()); err != ErrTooManyRows {
		t.Fatalf("expected ErrTooManyRows, got %v", err)
	}
}

func TestReportService_SubmitEmptyBatch(t *testing.T) {
	svc := NewReportService(newFakeReportStore())

	if _, err := svc.Submit(context.Background(), nil, uuid.New()); err != ErrEmptyBatch {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestReportService_UpdateStatus(t *testing.T) {
	store := newFakeReportStore()
	svc := NewReportService(store)

	id := uuid.New()
	store.byID[id] = &models.DispatchReport{ID: id, Status: "Pending"}

	report, err := svc.UpdateStatus(context.Background(), id, "Confirmed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != "Confirmed" || store.statuses[id] != "Confirmed" {
		t.Fatalf("status not updated: %+v", report)
	}

	if _, err := svc.UpdateStatus(context.Background(), id, "Departed"); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), uuid.New(), "Confirmed"); err != ErrReportNotFound {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}
