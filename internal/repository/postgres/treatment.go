package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/glowclinic/booking-api/internal/model"
	"github.com/glowclinic/booking-api/internal/repository"
)

type treatmentRepository struct {
	BaseRepository
}

func NewTreatmentRepository(db *sqlx.DB) repository.TreatmentRepository {
	return &treatmentRepository{NewBaseRepository(db)}
}

func (r *treatmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Treatment, error) {
	query := `
		SELECT id, name, category, description, price, duration_min, locations, active,
			   created_at, updated_at
		FROM treatments WHERE id = $1
	`
	var t model.Treatment
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *treatmentRepository) List(ctx context.Context, filters *model.TreatmentFilters) ([]*model.Treatment, error) {
	query := `
		SELECT id, name, category, description, price, duration_min, locations, active,
			   created_at, updated_at
		FROM treatments
		WHERE active = TRUE
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Category != "" {
			query += fmt.Sprintf(" AND category = $%d", argCount)
			args = append(args, filters.Category)
			argCount++
		}
		if filters.Location != "" {
			query += fmt.Sprintf(" AND locations @> to_jsonb($%d::text)", argCount)
			args = append(args, filters.Location)
			argCount++
		}
	}

	query += " ORDER BY category ASC, name ASC"

	var treatments []*model.Treatment
	if err := r.db.SelectContext(ctx, &treatments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list treatments: %w", err)
	}
	return treatments, nil
}
