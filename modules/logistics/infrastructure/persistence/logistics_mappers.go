package persistence

import (
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/persistence/models"
)

func toDomainUpload(m *models.Upload) upload.Upload {
	var dr *upload.DateRange
	if m.MinDate.Valid && m.MaxDate.Valid {
		dr = &upload.DateRange{Min: m.MinDate.Time.UTC(), Max: m.MaxDate.Time.UTC()}
	}
	return upload.Hydrate(
		m.ID,
		upload.Type(m.UploadType),
		m.FileName,
		m.FilePath,
		m.ReplaceMode,
		upload.StatusFrom(m.Status),
		int(m.RowsInserted),
		int(m.RowsRejected),
		dr,
		m.ErrorMessage,
		m.CreatedAt,
		nullTimeToPointer(m.StartedAt),
		nullTimeToPointer(m.FinishedAt),
	)
}

func toDBUpload(u upload.Upload) *models.Upload {
	out := &models.Upload{
		ID:           u.ID(),
		UploadType:   string(u.Type()),
		FileName:     u.FileName(),
		FilePath:     u.FilePath(),
		ReplaceMode:  u.Replace(),
		Status:       string(u.Status()),
		RowsInserted: int32(u.RowsInserted()),
		RowsRejected: int32(u.RowsRejected()),
		ErrorMessage: u.ErrorMessage(),
		CreatedAt:    u.CreatedAt(),
		StartedAt:    pointerToNullTime(u.StartedAt()),
		FinishedAt:   pointerToNullTime(u.FinishedAt()),
	}
	if dr := u.DateRange(); dr != nil {
		out.MinDate = sql.NullTime{Time: dr.Min, Valid: !dr.Min.IsZero()}
		out.MaxDate = sql.NullTime{Time: dr.Max, Valid: !dr.Max.IsZero()}
	}
	return out
}

func nullTimeToPointer(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func pointerToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// toCopyValue converts a parsed value into something pgx can encode in the
// binary COPY protocol.
func toCopyValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return pgtype.Numeric{Int: x.Coefficient(), Exp: x.Exponent(), Valid: true}
	case time.Time:
		return pgtype.Date{Time: x, Valid: true}
	default:
		return v
	}
}
