package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/orgnest/console-backend-go/internal/domain/facility"
	"github.com/orgnest/console-backend-go/internal/pkg/database"
)

type facilityRepository struct {
	db *database.DB
}

func NewFacilityRepository(db *database.DB) facility.Repository {
	return &facilityRepository{db: db}
}

func (r *facilityRepository) GetByID(ctx context.Context, id string, organizationID string) (facility.Facility, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, name, address, created_at, updated_at
		FROM facilities
		WHERE id = $1 AND organization_id = $2
	`

	var f facility.Facility
	err := q.QueryRow(ctx, query, id, organizationID).Scan(
		&f.ID, &f.OrganizationID, &f.Name, &f.Address, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return facility.Facility{}, facility.ErrFacilityNotFound
		}
		return facility.Facility{}, fmt.Errorf("failed to get facility: %w", err)
	}

	return f, nil
}
