package services

import (
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/infrastructure/spreadsheet"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/composables"
)

// FileStore archives original upload files.
type FileStore interface {
	Fs() afero.Fs
	Save(ctx context.Context, t upload.Type, id uuid.UUID, fileName string, r io.Reader) (string, error)
}

// SourceOpener returns a row source for an archived file.
type SourceOpener func(fs afero.Fs, path string) (upload.Source, error)

func openSpreadsheet(fs afero.Fs, path string) (upload.Source, error) {
	return spreadsheet.Open(fs, path, "")
}

type UploadService struct {
	repo     upload.Repository
	purger   upload.RowPurger
	files    FileStore
	registry *mapping.Registry
	pipeline *IngestionPipeline
	open     SourceOpener
	inTx     func(ctx context.Context, fn func(context.Context) error) error
	now      func() time.Time
}

func NewUploadService(
	repo upload.Repository,
	purger upload.RowPurger,
	files FileStore,
	registry *mapping.Registry,
	pipeline *IngestionPipeline,
) *UploadService {
	return &UploadService{
		repo:     repo,
		purger:   purger,
		files:    files,
		registry: registry,
		pipeline: pipeline,
		open:     openSpreadsheet,
		inTx:     composables.InTx,
		now:      time.Now,
	}
}

func (s *UploadService) GetByID(ctx context.Context, id uuid.UUID) (upload.Upload, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UploadService) GetPaginated(ctx context.Context, params *upload.FindParams) ([]upload.Upload, int64, error) {
	return s.repo.GetPaginated(ctx, params)
}

// Types lists the configured upload types and their column mappings.
func (s *UploadService) Types() []*mapping.Mapping {
	return s.registry.All()
}

// Ingest records an upload, archives the file and runs the pipeline over
// it. The returned upload reflects the final status; on failure the error is
// returned alongside it with the counts reached.
func (s *UploadService) Ingest(ctx context.Context, dto *upload.CreateDTO, file io.Reader) (upload.Upload, upload.Result, error) {
	m, ok := s.registry.Get(dto.Type)
	if !ok {
		return upload.Upload{}, upload.Result{}, errors.Wrapf(upload.ErrUnknownType, "type %q", dto.Type)
	}

	up, err := s.repo.Create(ctx, upload.New(upload.Type(m.Type), dto.FileName, dto.Replace || m.ReplaceMode))
	if err != nil {
		return upload.Upload{}, upload.Result{}, errors.Wrap(err, "create upload")
	}
	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{
		"upload-id":   up.ID().String(),
		"upload-type": m.Type,
	})

	path, err := s.files.Save(ctx, up.Type(), up.ID(), up.FileName(), file)
	if err != nil {
		return s.finishFailed(ctx, up, upload.Result{}, errors.Wrap(err, "archive upload"))
	}
	up = up.WithFilePath(path).Start(s.now())
	if err := s.repo.Update(ctx, up); err != nil {
		return up, upload.Result{}, errors.Wrap(err, "mark upload processing")
	}

	src, err := s.open(s.files.Fs(), path)
	if err != nil {
		return s.finishFailed(ctx, up, upload.Result{}, err)
	}

	res, err := s.pipeline.Ingest(ctx, up.ID(), src, m)
	if err != nil {
		return s.finishFailed(ctx, up, res, err)
	}

	if up.Replace() {
		return s.completeReplacing(ctx, up, res, m, logger)
	}

	up = up.Complete(res, s.now())
	if err := s.repo.Update(context.WithoutCancel(ctx), up); err != nil {
		return up, res, errors.Wrap(err, "mark upload successful")
	}
	return up, res, nil
}

// completeReplacing purges the other finished uploads of the type and marks
// up successful in one transaction.
func (s *UploadService) completeReplacing(
	ctx context.Context,
	up upload.Upload,
	res upload.Result,
	m *mapping.Mapping,
	logger *logrus.Entry,
) (upload.Upload, upload.Result, error) {
	done := up.Complete(res, s.now())
	var purged int64
	err := s.inTx(ctx, func(txCtx context.Context) error {
		n, err := s.purger.PurgeExcept(txCtx, m, up.ID())
		if err != nil {
			return err
		}
		purged = n
		return s.repo.Update(txCtx, done)
	})
	if err != nil {
		return s.finishFailed(ctx, up, res, errors.Wrap(err, "replace previous uploads"))
	}
	logger.WithField("rows", purged).Info("previous uploads replaced")
	return done, res, nil
}

// finishFailed records the failure even when ctx has been canceled, so a
// timed out run does not stay in processing.
func (s *UploadService) finishFailed(ctx context.Context, up upload.Upload, res upload.Result, cause error) (upload.Upload, upload.Result, error) {
	up = up.Fail(res, cause, s.now())
	if err := s.repo.Update(context.WithoutCancel(ctx), up); err != nil {
		composables.UseLogger(ctx).WithError(err).WithField("upload-id", up.ID().String()).Error("failed to record upload failure")
	}
	return up, res, cause
}
