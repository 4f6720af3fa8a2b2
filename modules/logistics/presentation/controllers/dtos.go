package controllers

import (
	"time"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
)

type UploadResponse struct {
	UploadID     string             `json:"uploadId"`
	Type         string             `json:"type"`
	FileName     string             `json:"fileName"`
	Status       string             `json:"status"`
	Replace      bool               `json:"replace"`
	RowsInserted int                `json:"rowsInserted"`
	RowsRejected int                `json:"rowsRejected"`
	DateRange    *upload.DateRange  `json:"dateRange,omitempty"`
	Rejections   []upload.Rejection `json:"rejections,omitempty"`
	ErrorMessage string             `json:"errorMessage,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	StartedAt    *time.Time         `json:"startedAt,omitempty"`
	FinishedAt   *time.Time         `json:"finishedAt,omitempty"`
}

func toUploadResponse(u upload.Upload) UploadResponse {
	return UploadResponse{
		UploadID:     u.ID().String(),
		Type:         string(u.Type()),
		FileName:     u.FileName(),
		Status:       string(u.Status()),
		Replace:      u.Replace(),
		RowsInserted: u.RowsInserted(),
		RowsRejected: u.RowsRejected(),
		DateRange:    u.DateRange(),
		ErrorMessage: u.ErrorMessage(),
		CreatedAt:    u.CreatedAt(),
		StartedAt:    u.StartedAt(),
		FinishedAt:   u.FinishedAt(),
	}
}

type UploadTypeField struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	Aliases  []string `json:"aliases"`
}

type UploadType struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	DateField string            `json:"dateField,omitempty"`
	Replace   bool              `json:"replace"`
	Fields    []UploadTypeField `json:"fields"`
}

func toUploadType(m *mapping.Mapping) UploadType {
	out := UploadType{
		Type:      m.Type,
		Title:     m.Title,
		DateField: m.DateField,
		Replace:   m.ReplaceMode,
		Fields:    make([]UploadTypeField, 0, len(m.Fields)),
	}
	for _, f := range m.Fields {
		aliases := f.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		out.Fields = append(out.Fields, UploadTypeField{
			Name:     f.Name,
			Kind:     string(f.Kind),
			Required: f.Required,
			Aliases:  aliases,
		})
	}
	return out
}
