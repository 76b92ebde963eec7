package treatment

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowclinic/booking-api/internal/model"
	apperrors "github.com/glowclinic/booking-api/pkg/errors"
)

type fakeTreatmentRepo struct {
	catalog []*model.Treatment
}

func (r *fakeTreatmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Treatment, error) {
	for _, t := range r.catalog {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeTreatmentRepo) List(_ context.Context, filters *model.TreatmentFilters) ([]*model.Treatment, error) {
	var out []*model.Treatment
	for _, t := range r.catalog {
		if filters != nil && filters.Category != "" && t.Category != filters.Category {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func catalog() []*model.Treatment {
	return []*model.Treatment{
		{
			Base:      model.Base{ID: uuid.New()},
			Name:      "Hydra Facial",
			Category:  "skin",
			Price:     2500,
			Locations: model.StringList{"koramangala"},
			Active:    true,
		},
		{
			Base:      model.Base{ID: uuid.New()},
			Name:      "Laser Hair Removal",
			Category:  "laser",
			Price:     4000,
			Locations: model.StringList{"koramangala", "indiranagar"},
			Active:    true,
		},
	}
}

func TestGetTreatment(t *testing.T) {
	repo := &fakeTreatmentRepo{catalog: catalog()}
	svc := NewService(repo)

	got, err := svc.Get(context.Background(), repo.catalog[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Hydra Facial", got.Name)

	_, err = svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestListTreatmentsByCategory(t *testing.T) {
	repo := &fakeTreatmentRepo{catalog: catalog()}
	svc := NewService(repo)

	all, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	laser, err := svc.List(context.Background(), &model.TreatmentFilters{Category: "laser"})
	require.NoError(t, err)
	require.Len(t, laser, 1)
	assert.Equal(t, "Laser Hair Removal", laser[0].Name)
}

func TestListTreatmentsRejectsUnknownLocation(t *testing.T) {
	svc := NewService(&fakeTreatmentRepo{catalog: catalog()})

	_, err := svc.List(context.Background(), &model.TreatmentFilters{Location: "hebbal"})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}
