package treatment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/repository"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
)

// Service exposes the treatment catalog read-only. Catalog writes happen
// through migrations and back-office tooling, not this API.
type Service struct {
	repo repository.TreatmentRepository
}

func NewService(repo repository.TreatmentRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Treatment, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("treatment")
		}
		return nil, apperrors.Internal(err)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, filters *model.TreatmentFilters) ([]*model.Treatment, error) {
	if filters != nil && filters.Location != "" && !model.IsValidLocation(filters.Location) {
		return nil, apperrors.Validationf("invalid location %q", filters.Location)
	}
	treatments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return treatments, nil
}
