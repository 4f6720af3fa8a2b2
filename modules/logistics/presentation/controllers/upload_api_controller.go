package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/services"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/application"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/composables"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/configuration"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

type uploadService interface {
	Ingest(ctx context.Context, dto *upload.CreateDTO, file io.Reader) (upload.Upload, upload.Result, error)
	GetByID(ctx context.Context, id uuid.UUID) (upload.Upload, error)
	GetPaginated(ctx context.Context, params *upload.FindParams) ([]upload.Upload, int64, error)
	Types() []*mapping.Mapping
}

type UploadAPIOptions struct {
	MaxUploadSize   int64
	MaxUploadMemory int64
	Timeout         time.Duration
	// Applied to the upload route only.
	UploadMiddleware []mux.MiddlewareFunc
}

type UploadAPIController struct {
	uploads  uploadService
	opts     UploadAPIOptions
	basePath string
}

func NewUploadAPIController(app application.Application, uploadMiddleware ...mux.MiddlewareFunc) application.Controller {
	conf := configuration.Use()
	return newUploadAPIController(
		app.Service(services.UploadService{}).(*services.UploadService),
		UploadAPIOptions{
			MaxUploadSize:    conf.MaxUploadSize,
			MaxUploadMemory:  conf.MaxUploadMemory,
			Timeout:          conf.Ingestion.Timeout,
			UploadMiddleware: uploadMiddleware,
		},
	)
}

func newUploadAPIController(uploads uploadService, opts UploadAPIOptions) *UploadAPIController {
	return &UploadAPIController{
		uploads:  uploads,
		opts:     opts,
		basePath: "/logistics/api",
	}
}

func (c *UploadAPIController) Key() string {
	return c.basePath
}

func (c *UploadAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/upload-types", c.Types).Methods(http.MethodGet)
	router.HandleFunc("/uploads", c.List).Methods(http.MethodGet)
	router.HandleFunc("/uploads/{id}", c.Get).Methods(http.MethodGet)

	writeRouter := r.PathPrefix(c.basePath).Subrouter()
	writeRouter.Use(c.opts.UploadMiddleware...)
	writeRouter.HandleFunc("/uploads", c.Upload).Methods(http.MethodPost)
}

func (c *UploadAPIController) Types(w http.ResponseWriter, r *http.Request) {
	mappings := c.uploads.Types()
	items := make([]UploadType, 0, len(mappings))
	for _, m := range mappings {
		items = append(items, toUploadType(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (c *UploadAPIController) List(w http.ResponseWriter, r *http.Request) {
	params := &upload.FindParams{
		Type:   upload.Type(strings.TrimSpace(composables.GetLastQueryParam(r, "type"))),
		Limit:  queryInt(r, "limit", defaultPageSize, 1, maxPageSize),
		Offset: queryInt(r, "offset", 0, 0, 1<<31-1),
	}
	if v := strings.TrimSpace(composables.GetLastQueryParam(r, "status")); v != "" {
		status, ok := upload.ParseStatus(v)
		if !ok {
			writeAPIError(w, r, http.StatusBadRequest, "LOGISTICS_INVALID_STATUS", "unknown status "+strconv.Quote(v))
			return
		}
		params.Status = status
	}

	items, total, err := c.uploads.GetPaginated(r.Context(), params)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to list uploads")
		writeAPIError(w, r, http.StatusInternalServerError, "LOGISTICS_INTERNAL", "internal error")
		return
	}
	out := make([]UploadResponse, 0, len(items))
	for _, u := range items {
		out = append(out, toUploadResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}

func (c *UploadAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "LOGISTICS_INVALID_ID", "invalid upload id")
		return
	}
	u, err := c.uploads.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "LOGISTICS_UPLOAD_NOT_FOUND", "upload not found")
			return
		}
		composables.UseLogger(r.Context()).WithError(err).Error("failed to load upload")
		writeAPIError(w, r, http.StatusInternalServerError, "LOGISTICS_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toUploadResponse(u))
}

func (c *UploadAPIController) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.opts.MaxUploadSize)
	if err := r.ParseMultipartForm(c.opts.MaxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIError(w, r, http.StatusRequestEntityTooLarge, "LOGISTICS_FILE_TOO_LARGE",
				"file exceeds the upload limit of "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		writeAPIError(w, r, http.StatusBadRequest, "LOGISTICS_INVALID_FORM", "expected a multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "LOGISTICS_FILE_REQUIRED", "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	replace, _ := strconv.ParseBool(r.FormValue("replace"))
	dto := upload.CreateDTO{
		Type:     r.FormValue("type"),
		FileName: header.Filename,
		Replace:  replace,
	}
	if errs, ok := dto.Ok(); !ok {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "LOGISTICS_VALIDATION_FAILED", joinErrors(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), c.opts.Timeout)
	defer cancel()

	up, res, err := c.uploads.Ingest(ctx, &dto, file)
	if err != nil {
		c.writeIngestError(w, r, up, err)
		return
	}

	resp := toUploadResponse(up)
	resp.Rejections = res.Rejections
	writeJSON(w, http.StatusCreated, resp)
}

func (c *UploadAPIController) writeIngestError(w http.ResponseWriter, r *http.Request, up upload.Upload, err error) {
	meta := map[string]string{}
	if !up.IsZero() {
		meta["upload_id"] = up.ID().String()
	}

	switch {
	case errors.Is(err, upload.ErrUnknownType):
		writeAPIErrorMeta(w, r, http.StatusUnprocessableEntity, "LOGISTICS_UNKNOWN_TYPE", err.Error(), meta)
		return
	case errors.Is(err, upload.ErrUnsupportedFile):
		writeAPIErrorMeta(w, r, http.StatusUnsupportedMediaType, "LOGISTICS_UNSUPPORTED_FILE", "only .xlsx and .csv files are supported", meta)
		return
	case errors.Is(err, upload.ErrEmptyFile):
		writeAPIErrorMeta(w, r, http.StatusUnprocessableEntity, "LOGISTICS_EMPTY_FILE", "the file has no header row", meta)
		return
	}

	ie, ok := upload.AsIngestError(err)
	if !ok {
		composables.UseLogger(r.Context()).WithError(err).Error("upload failed")
		writeAPIErrorMeta(w, r, http.StatusInternalServerError, "LOGISTICS_INTERNAL", "internal error", meta)
		return
	}

	meta["stage"] = string(ie.Stage)
	meta["rows_inserted"] = strconv.Itoa(ie.RowsInserted)
	meta["rows_rejected"] = strconv.Itoa(ie.RowsRejected)
	switch ie.Kind {
	case upload.KindRowLimitExceeded:
		writeAPIErrorMeta(w, r, http.StatusRequestEntityTooLarge, "LOGISTICS_ROW_LIMIT_EXCEEDED", ie.Error(), meta)
	case upload.KindMissingColumns:
		writeAPIErrorMeta(w, r, http.StatusUnprocessableEntity, "LOGISTICS_MISSING_COLUMNS", ie.Err.Error(), meta)
	case upload.KindSource:
		writeAPIErrorMeta(w, r, http.StatusUnprocessableEntity, "LOGISTICS_UNREADABLE_FILE", ie.Error(), meta)
	case upload.KindCanceled:
		writeAPIErrorMeta(w, r, http.StatusGatewayTimeout, "LOGISTICS_TIMEOUT", ie.Error(), meta)
	default:
		composables.UseLogger(r.Context()).WithError(err).Error("upload failed while writing rows")
		writeAPIErrorMeta(w, r, http.StatusInternalServerError, "LOGISTICS_STORAGE_WRITE_FAILED", ie.Error(), meta)
	}
}

func queryInt(r *http.Request, key string, def, lo, hi int) int {
	v := strings.TrimSpace(composables.GetLastQueryParam(r, key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo {
		return def
	}
	if n > hi {
		return hi
	}
	return n
}

func joinErrors(errs map[string]string) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, errs[k])
	}
	return strings.Join(parts, "; ")
}
