package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/persistence/models"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/composables"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/repo"
)

const (
	uploadSelectQuery = `SELECT id, upload_type, file_name, file_path, replace_mode, status, rows_inserted, rows_rejected,
		min_date, max_date, error_message, created_at, started_at, finished_at FROM logistics_uploads`
	uploadCountQuery  = `SELECT COUNT(*) FROM logistics_uploads`
	uploadInsertQuery = `INSERT INTO logistics_uploads (id, upload_type, file_name, file_path, replace_mode, status,
		rows_inserted, rows_rejected, min_date, max_date, error_message, created_at, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	uploadUpdateQuery = `UPDATE logistics_uploads
		SET file_path = $1, status = $2, rows_inserted = $3, rows_rejected = $4, min_date = $5, max_date = $6,
			error_message = $7, started_at = $8, finished_at = $9
		WHERE id = $10`
)

type UploadRepository struct{}

func NewUploadRepository() upload.Repository {
	return &UploadRepository{}
}

func (r *UploadRepository) Create(ctx context.Context, u upload.Upload) (upload.Upload, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return upload.Upload{}, errors.Wrap(err, "failed to get transaction")
	}
	m := toDBUpload(u)
	if _, err := tx.Exec(
		ctx,
		uploadInsertQuery,
		m.ID,
		m.UploadType,
		m.FileName,
		m.FilePath,
		m.ReplaceMode,
		m.Status,
		m.RowsInserted,
		m.RowsRejected,
		m.MinDate,
		m.MaxDate,
		m.ErrorMessage,
		m.CreatedAt,
		m.StartedAt,
		m.FinishedAt,
	); err != nil {
		return upload.Upload{}, errors.Wrap(err, "failed to insert upload")
	}
	return r.GetByID(ctx, u.ID())
}

func (r *UploadRepository) Update(ctx context.Context, u upload.Upload) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	m := toDBUpload(u)
	tag, err := tx.Exec(
		ctx,
		uploadUpdateQuery,
		m.FilePath,
		m.Status,
		m.RowsInserted,
		m.RowsRejected,
		m.MinDate,
		m.MaxDate,
		m.ErrorMessage,
		m.StartedAt,
		m.FinishedAt,
		m.ID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update upload")
	}
	if tag.RowsAffected() == 0 {
		return upload.ErrNotFound
	}
	return nil
}

func (r *UploadRepository) GetByID(ctx context.Context, id uuid.UUID) (upload.Upload, error) {
	uploads, err := r.queryUploads(ctx, uploadSelectQuery+" WHERE id = $1", id)
	if err != nil {
		return upload.Upload{}, err
	}
	if len(uploads) == 0 {
		return upload.Upload{}, upload.ErrNotFound
	}
	return uploads[0], nil
}

func (r *UploadRepository) GetPaginated(ctx context.Context, params *upload.FindParams) ([]upload.Upload, int64, error) {
	var (
		where []string
		args  []interface{}
	)
	if params.Type != "" {
		args = append(args, string(params.Type))
		where = append(where, fmt.Sprintf("upload_type = $%d", len(args)))
	}
	if params.Status != "" {
		args = append(args, string(params.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get transaction")
	}
	var total int64
	if err := tx.QueryRow(ctx, repo.Join(uploadCountQuery, repo.JoinWhere(where...)), args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count uploads")
	}

	query := repo.Join(
		uploadSelectQuery,
		repo.JoinWhere(where...),
		"ORDER BY created_at DESC, id",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	uploads, err := r.queryUploads(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return uploads, total, nil
}

func (r *UploadRepository) queryUploads(ctx context.Context, query string, args ...interface{}) ([]upload.Upload, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var uploads []upload.Upload
	for rows.Next() {
		var m models.Upload
		if err := rows.Scan(
			&m.ID,
			&m.UploadType,
			&m.FileName,
			&m.FilePath,
			&m.ReplaceMode,
			&m.Status,
			&m.RowsInserted,
			&m.RowsRejected,
			&m.MinDate,
			&m.MaxDate,
			&m.ErrorMessage,
			&m.CreatedAt,
			&m.StartedAt,
			&m.FinishedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan upload row")
		}
		uploads = append(uploads, toDomainUpload(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate upload rows")
	}
	return uploads, nil
}
