package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/composables"
)

// RowWriter bulk loads batches with COPY. Every batch commits in its own
// transaction, so a failed batch leaves earlier ones in place.
type RowWriter struct{}

func NewRowWriter() *RowWriter {
	return &RowWriter{}
}

func copyColumns(m *mapping.Mapping) []string {
	return append([]string{"upload_id", "line"}, m.Columns()...)
}

func copyRow(m *mapping.Mapping, uploadID pgtype.UUID, row upload.ParsedRow) []any {
	values := make([]any, 0, len(m.Fields)+2)
	values = append(values, uploadID, int32(row.Line))
	for _, f := range m.Fields {
		values = append(values, toCopyValue(row.Values[f.Name]))
	}
	return values
}

func (w *RowWriter) WriteBatch(ctx context.Context, m *mapping.Mapping, uploadID uuid.UUID, rows []upload.ParsedRow) error {
	if len(rows) == 0 {
		return nil
	}
	id := pgtype.UUID{Bytes: uploadID, Valid: true}
	return composables.InTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return errors.Wrap(err, "failed to get transaction")
		}
		n, err := tx.CopyFrom(
			txCtx,
			pgx.Identifier{m.Table},
			copyColumns(m),
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				return copyRow(m, id, rows[i]), nil
			}),
		)
		if err != nil {
			return errors.Wrapf(err, "copy into %s", m.Table)
		}
		if n != int64(len(rows)) {
			return errors.Errorf("copy into %s: wrote %d of %d rows", m.Table, n, len(rows))
		}
		return nil
	})
}

const (
	replaceLockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`
	// rows of uploads still pending or processing are left alone; they are
	// purged by whichever replace run finishes after them
	purgeFinishedQuery = ` WHERE upload_id IN (
		SELECT id FROM logistics_uploads
		WHERE upload_type = $2 AND id <> $1 AND status IN ('success', 'failed'))`
)

// PurgeExcept deletes the rows of every other finished upload of the
// mapping's type. It takes a transaction scoped lock per table, so it must run
// in the transaction that also marks keep as successful: concurrent replace
// runs then finish one after the other and the last one wins.
func (w *RowWriter) PurgeExcept(ctx context.Context, m *mapping.Mapping, keep uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, replaceLockQuery, "logistics_replace:"+m.Table); err != nil {
		return 0, errors.Wrapf(err, "lock %s", m.Table)
	}
	query := "DELETE FROM " + pgx.Identifier{m.Table}.Sanitize() + purgeFinishedQuery
	tag, err := tx.Exec(ctx, query, keep, m.Type)
	if err != nil {
		return 0, errors.Wrapf(err, "purge %s", m.Table)
	}
	return tag.RowsAffected(), nil
}

// DiscardWriter accepts batches without storing them, for dry runs.
type DiscardWriter struct{}

func (DiscardWriter) WriteBatch(context.Context, *mapping.Mapping, uuid.UUID, []upload.ParsedRow) error {
	return nil
}

func (DiscardWriter) PurgeExcept(context.Context, *mapping.Mapping, uuid.UUID) (int64, error) {
	return 0, nil
}
