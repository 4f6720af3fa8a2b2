package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/composables"
)

const (
	DefaultMaxRows         = 500_000
	DefaultBatchSize       = 5_000
	DefaultRejectionSample = 100
)

var tracer = otel.Tracer("github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/services")

type PipelineOptions struct {
	MaxRows         int
	BatchSize       int
	RejectionSample int
}

func (o PipelineOptions) withDefaults() PipelineOptions {
	if o.MaxRows <= 0 {
		o.MaxRows = DefaultMaxRows
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.RejectionSample < 0 {
		o.RejectionSample = 0
	}
	return o
}

// IngestionPipeline validates rows from a source and writes them in fixed
// size batches. One call handles one upload; batches are written one at a
// time in input order.
type IngestionPipeline struct {
	writer upload.RowWriter
	opts   PipelineOptions
}

func NewIngestionPipeline(writer upload.RowWriter, opts PipelineOptions) *IngestionPipeline {
	return &IngestionPipeline{
		writer: writer,
		opts:   opts.withDefaults(),
	}
}

func (p *IngestionPipeline) Options() PipelineOptions {
	return p.opts
}

// Ingest runs the pipeline. The returned Result holds the counts reached even
// when an *upload.IngestError is returned; batches flushed before a failure
// stay committed.
func (p *IngestionPipeline) Ingest(ctx context.Context, uploadID uuid.UUID, src upload.Source, m *mapping.Mapping) (upload.Result, error) {
	ctx, span := tracer.Start(ctx, "logistics.ingest", trace.WithAttributes(
		attribute.String("upload.id", uploadID.String()),
		attribute.String("upload.type", m.Type),
	))
	defer span.End()

	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{
		"upload-id":   uploadID.String(),
		"upload-type": m.Type,
	})

	run := &ingestRun{
		pipeline: p,
		mapping:  m,
		uploadID: uploadID,
		logger:   logger,
		batch:    make([]upload.ParsedRow, 0, p.opts.BatchSize),
	}
	err := run.execute(ctx, src)

	met := getMetrics()
	met.rowsTotal.WithLabelValues(m.Type, "inserted").Add(float64(run.result.RowsInserted))
	met.rowsTotal.WithLabelValues(m.Type, "rejected").Add(float64(run.result.RowsRejected))
	span.SetAttributes(
		attribute.Int("rows.inserted", run.result.RowsInserted),
		attribute.Int("rows.rejected", run.result.RowsRejected),
	)
	if err != nil {
		met.uploadsTotal.WithLabelValues(m.Type, "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).Warn("ingestion failed")
		return run.result, err
	}
	met.uploadsTotal.WithLabelValues(m.Type, "success").Inc()
	logger.WithFields(logrus.Fields{
		"inserted": run.result.RowsInserted,
		"rejected": run.result.RowsRejected,
		"batches":  run.result.Batches,
	}).Info("ingestion finished")
	return run.result, nil
}

type ingestRun struct {
	pipeline *IngestionPipeline
	mapping  *mapping.Mapping
	uploadID uuid.UUID
	logger   *logrus.Entry
	batch    []upload.ParsedRow
	// dates of the rows in batch; merged into result once the batch commits
	pending *upload.DateRange
	result  upload.Result
}

func (r *ingestRun) fail(kind upload.ErrorKind, stage upload.Stage, batch int, err error) error {
	return &upload.IngestError{
		Kind:         kind,
		Stage:        stage,
		Batch:        batch,
		RowsInserted: r.result.RowsInserted,
		RowsRejected: r.result.RowsRejected,
		Err:          err,
	}
}

func (r *ingestRun) failSource(ctx context.Context, stage upload.Stage, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return r.fail(upload.KindCanceled, stage, 0, ctxErr)
	}
	return r.fail(upload.KindSource, stage, 0, err)
}

func (r *ingestRun) execute(ctx context.Context, src upload.Source) error {
	opts := r.pipeline.opts

	total, err := src.Count(ctx)
	if err != nil {
		return r.failSource(ctx, upload.StageCount, err)
	}
	if total > opts.MaxRows {
		return r.fail(upload.KindRowLimitExceeded, upload.StageCount, 0,
			fmt.Errorf("%w: file has %d rows, the limit is %d", upload.ErrRowLimitExceeded, total, opts.MaxRows))
	}
	r.logger.WithField("rows", total).Debug("row count checked")

	it, err := src.Open(ctx)
	if err != nil {
		return r.failSource(ctx, upload.StageRead, err)
	}
	defer func() {
		if err := it.Close(); err != nil {
			r.logger.WithError(err).Warn("failed to close row source")
		}
	}()

	cols, err := r.mapping.Resolve(it.Header())
	if err != nil {
		return r.fail(upload.KindMissingColumns, upload.StageHeaders, 0, err)
	}
	parser := newRowParser(r.mapping, cols)

	seen := 0
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return r.fail(upload.KindCanceled, upload.StageRead, 0, err)
		}
		seen++
		if seen > opts.MaxRows {
			// the source grew between the count pass and the stream pass
			return r.fail(upload.KindRowLimitExceeded, upload.StageRead, 0,
				fmt.Errorf("%w: more than %d rows", upload.ErrRowLimitExceeded, opts.MaxRows))
		}

		row, rej := parser.parse(it.Line(), it.Row())
		if rej != nil {
			r.result.RowsRejected++
			if len(r.result.Rejections) < opts.RejectionSample {
				r.result.Rejections = append(r.result.Rejections, *rej)
			}
			continue
		}
		if d, ok := parser.date(row); ok {
			r.pending = r.pending.Include(d)
		}

		r.batch = append(r.batch, row)
		if len(r.batch) == opts.BatchSize {
			if err := r.flush(ctx); err != nil {
				return err
			}
		}
	}
	if err := it.Err(); err != nil {
		return r.failSource(ctx, upload.StageRead, err)
	}

	if len(r.batch) > 0 {
		return r.flush(ctx)
	}
	return nil
}

func (r *ingestRun) flush(ctx context.Context) error {
	batchNo := r.result.Batches + 1
	ctx, span := tracer.Start(ctx, "logistics.ingest.batch", trace.WithAttributes(
		attribute.Int("batch.number", batchNo),
		attribute.Int("batch.rows", len(r.batch)),
	))
	defer span.End()

	met := getMetrics()
	start := time.Now()
	err := r.pipeline.writer.WriteBatch(ctx, r.mapping, r.uploadID, r.batch)
	met.batchDuration.WithLabelValues(r.mapping.Type).Observe(time.Since(start).Seconds())

	if err != nil {
		met.batchesTotal.WithLabelValues(r.mapping.Type, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return r.fail(upload.KindCanceled, upload.StageFlush, batchNo, err)
		}
		return r.fail(upload.KindStorageWrite, upload.StageFlush, batchNo, fmt.Errorf("%w: %w", upload.ErrStorageWrite, err))
	}
	met.batchesTotal.WithLabelValues(r.mapping.Type, "ok").Inc()

	r.result.Batches = batchNo
	r.result.RowsInserted += len(r.batch)
	if r.pending != nil {
		r.result.DateRange = r.result.DateRange.Include(r.pending.Min).Include(r.pending.Max)
		r.pending = nil
	}
	r.logger.WithFields(logrus.Fields{
		"batch": batchNo,
		"rows":  len(r.batch),
	}).Debug("batch written")

	clear(r.batch)
	r.batch = r.batch[:0]
	return nil
}
