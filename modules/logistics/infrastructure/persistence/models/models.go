package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Upload struct {
	ID           uuid.UUID
	UploadType   string
	FileName     string
	FilePath     string
	ReplaceMode  bool
	Status       string
	RowsInserted int32
	RowsRejected int32
	MinDate      sql.NullTime
	MaxDate      sql.NullTime
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    sql.NullTime
	FinishedAt   sql.NullTime
}
