package upload

import (
	"context"

	"github.com/google/uuid"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
)

type FindParams struct {
	Type   Type
	Status Status
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, u Upload) (Upload, error)
	Update(ctx context.Context, u Upload) error
	GetByID(ctx context.Context, id uuid.UUID) (Upload, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Upload, int64, error)
}

// RowWriter persists accepted rows. WriteBatch must not retain rows after it
// returns; the pipeline reuses the slice for the next batch.
type RowWriter interface {
	WriteBatch(ctx context.Context, m *mapping.Mapping, uploadID uuid.UUID, rows []ParsedRow) error
}

// RowPurger removes rows that belong to other finished uploads of a type.
// PurgeExcept runs in the transaction that marks keep as successful.
type RowPurger interface {
	PurgeExcept(ctx context.Context, m *mapping.Mapping, keep uuid.UUID) (int64, error)
}
