package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/domains/reports/be/repo"
	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// ErrNotFound is returned when the report does not exist in the caller's
// organization.
var ErrNotFound = errors.New("record not found")

// defaultWindow is used for orders summaries when the caller omits a
// range.
const defaultWindow = 30 * 24 * time.Hour

// CreateInput is the payload for requesting a report. From and To only
// apply to orders summaries.
type CreateInput struct {
	Kind string
	From *time.Time
	To   *time.Time
}

// Service defines the business operations for the reports domain.
// Reports are computed synchronously; the pending status only exists for
// the window between the insert and the result write.
type Service interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (persistence.Report, error)
	Run(ctx context.Context, orgID, id uuid.UUID) (persistence.Report, error)
	List(ctx context.Context, orgID uuid.UUID) ([]persistence.Report, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Report, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type service struct {
	repo repo.Repository
	now  func() time.Time
}

// New constructs a reports Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("reports repository is required")
	}
	return &service{repo: r, now: time.Now}
}

type ordersSummaryParams struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (s *service) Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (persistence.Report, error) {
	kind := strings.TrimSpace(strings.ToLower(input.Kind))
	if !persistence.ValidReportKind(kind) {
		return persistence.Report{}, &ValidationError{
			Fields: FieldErrors{"kind": {fmt.Sprintf("unknown kind %q", input.Kind)}},
		}
	}

	var params json.RawMessage
	var from, to time.Time
	if kind == persistence.ReportKindOrdersSummary {
		to = s.now()
		if input.To != nil {
			to = *input.To
		}
		from = to.Add(-defaultWindow)
		if input.From != nil {
			from = *input.From
		}
		if !from.Before(to) {
			return persistence.Report{}, &ValidationError{
				Fields: FieldErrors{"from": {"from must be before to"}},
			}
		}
		encoded, err := json.Marshal(ordersSummaryParams{From: from, To: to})
		if err != nil {
			return persistence.Report{}, fmt.Errorf("encoding report params: %w", err)
		}
		params = encoded
	}

	report, err := s.repo.Create(ctx, orgID, persistence.CreateReportParams{
		ReportID: uuid.New(),
		Kind:     kind,
		Params:   params,
	})
	if err != nil {
		return persistence.Report{}, mapPersistenceError(err)
	}

	result, err := s.compute(ctx, orgID, kind, from, to)
	if err != nil {
		return persistence.Report{}, fmt.Errorf("computing %s report: %w", kind, err)
	}

	completed, err := s.repo.SetResult(ctx, orgID, report.ReportID, result)
	if err != nil {
		return persistence.Report{}, mapPersistenceError(err)
	}
	return completed, nil
}

// Run recomputes an existing report against current data, replacing its
// stored result. Orders summaries reuse the window saved at creation.
func (s *service) Run(ctx context.Context, orgID, id uuid.UUID) (persistence.Report, error) {
	if id == uuid.Nil {
		return persistence.Report{}, ErrNotFound
	}

	report, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return persistence.Report{}, mapPersistenceError(err)
	}

	var from, to time.Time
	if report.Kind == persistence.ReportKindOrdersSummary {
		var window ordersSummaryParams
		if err := json.Unmarshal(report.Params, &window); err != nil {
			return persistence.Report{}, fmt.Errorf("decoding report params: %w", err)
		}
		from, to = window.From, window.To
	}

	result, err := s.compute(ctx, orgID, report.Kind, from, to)
	if err != nil {
		return persistence.Report{}, fmt.Errorf("computing %s report: %w", report.Kind, err)
	}

	completed, err := s.repo.SetResult(ctx, orgID, id, result)
	if err != nil {
		return persistence.Report{}, mapPersistenceError(err)
	}
	return completed, nil
}

func (s *service) compute(ctx context.Context, orgID uuid.UUID, kind string, from, to time.Time) (json.RawMessage, error) {
	switch kind {
	case persistence.ReportKindInventorySummary:
		summary, err := s.repo.ComputeInventorySummary(ctx, orgID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(summary)
	case persistence.ReportKindOrdersSummary:
		summary, err := s.repo.ComputeOrdersSummary(ctx, orgID, from, to)
		if err != nil {
			return nil, err
		}
		return json.Marshal(summary)
	default:
		return nil, fmt.Errorf("unknown report kind %q", kind)
	}
}

func (s *service) List(ctx context.Context, orgID uuid.UUID) ([]persistence.Report, error) {
	return s.repo.List(ctx, orgID)
}

func (s *service) Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Report, error) {
	if id == uuid.Nil {
		return persistence.Report{}, ErrNotFound
	}

	report, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return persistence.Report{}, mapPersistenceError(err)
	}
	return report, nil
}

func (s *service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

func mapPersistenceError(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
