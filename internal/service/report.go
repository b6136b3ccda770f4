package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetops/dispatch-board/internal/dispatch"
	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/repository"
	"github.com/google/uuid"
)

// MaxBatchRows caps one submission; the cap is endpoint policy, the
// normalizer itself accepts any count.
const MaxBatchRows = 10

var (
	ErrTooManyRows    = fmt.Errorf("a submission may contain at most %d rows", MaxBatchRows)
	ErrEmptyBatch     = errors.New("submission contains no rows")
	ErrReportNotFound = errors.New("report not found")
	ErrInvalidStatus  = errors.New("status not in the allowed set")
)

// ReportStore is what the service needs from the repository layer.
type ReportStore interface {
	InsertBatch(ctx context.Context, reports []models.DispatchReport) error
	List(ctx context.Context, filter repository.ReportFilter) ([]models.DispatchReport, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DispatchReport, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type ReportService struct {
	repo ReportStore
}

func NewReportService(repo ReportStore) *ReportService {
	return &ReportService{repo: repo}
}

type RowResult struct {
	RowIndex int               `json:"row_index"`
	ID       string            `json:"id,omitempty"`
	Status   string            `json:"status"`
	Errors   map[string]string `json:"errors,omitempty"`
}

type SubmitResult struct {
	OK        bool        `json:"ok"`
	Submitted int         `json:"submitted,omitempty"`
	Results   []RowResult `json:"results"`
}

// Submit validates and inserts one batch. The batch is a single
// Ops-PIC unit: any invalid row rejects the whole batch and nothing
// is inserted.
func (s *ReportService) Submit(ctx context.Context, rows []dispatch.RawRow, submittedBy uuid.UUID) (*SubmitResult, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(rows) > MaxBatchRows {
		return nil, ErrTooManyRows
	}

	reports, rowErrors := dispatch.NormalizeRows(rows)

	if len(rowErrors) > 0 {
		result := &SubmitResult{OK: false}
		for _, re := range rowErrors {
			result.Results = append(result.Results, RowResult{
				RowIndex: re.RowIndex,
				ID:       re.ID,
				Status:   "error",
				Errors:   re.Errors,
			})
		}
		return result, nil
	}

	for i := range reports {
		id := submittedBy
		reports[i].SubmittedBy = &id
	}

	if err := s.repo.InsertBatch(ctx, reports); err != nil {
		return nil, fmt.Errorf("failed to insert report batch: %w", err)
	}

	result := &SubmitResult{OK: true, Submitted: len(reports)}
	for i := range reports {
		result.Results = append(result.Results, RowResult{RowIndex: i, Status: "created"})
	}
	return result, nil
}

func (s *ReportService) List(ctx context.Context, filter repository.ReportFilter) ([]models.DispatchReport, int64, error) {
	return s.repo.List(ctx, filter)
}

// UpdateStatus moves a report through the verification flow. Only
// membership in the allowed set is checked; the back office does not
// define a transition matrix.
func (s *ReportService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.DispatchReport, error) {
	allowed := false
	for _, st := range dispatch.AllowedStatuses {
		if st == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidStatus
	}

	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	report.Status = status
	return report, nil
}
