package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/internal/repository"
	"github.com/nextlevel-sports/academy-api/pkg/civiltime"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
)

type receivableStore interface {
	List(ctx context.Context, filter models.ReceivableFilter) ([]models.Receivable, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
}

// ReceivableService exposes billing queries and payment settlement.
type ReceivableService struct {
	receivables receivableStore
	zone        *civiltime.Zone
	logger      *zap.Logger
}

// NewReceivableService instantiates ReceivableService.
func NewReceivableService(receivables receivableStore, zone *civiltime.Zone, logger *zap.Logger) *ReceivableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceivableService{receivables: receivables, zone: zone, logger: logger}
}

// List returns receivables matching the filter.
func (s *ReceivableService) List(ctx context.Context, filter models.ReceivableFilter) ([]models.Receivable, error) {
	receivables, err := s.receivables.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list receivables")
	}
	return receivables, nil
}

// MarkPaid settles an open receivable. An empty date means today.
func (s *ReceivableService) MarkPaid(ctx context.Context, id, date string) error {
	paidAt := time.Now().UTC()
	if date != "" {
		parsed, err := s.zone.ParseDate(date)
		if err != nil {
			return err
		}
		paidAt = parsed.UTC()
	}
	if err := s.receivables.MarkPaid(ctx, id, paidAt); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrNotFound, "open receivable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark receivable paid")
	}
	return nil
}
