// Package pipeline runs a manuscript through split, edit, merge and validate.
// The editing itself is delegated to an Editor supplied by the caller:
//
//	p, err := pipeline.NewFromConfig(pipeline.EditorFunc(func(ctx context.Context, c chunk.Chunk) (string, error) {
//		return callModel(ctx, c.OverlapStart, c.Text, c.OverlapEnd)
//	}), cfg)
//	...
//	result, err := p.Run(ctx, manuscript.Text)
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/shadow7/omnichunk/pkg/chunk"
	"github.com/shadow7/omnichunk/pkg/config"
	"github.com/shadow7/omnichunk/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("omnichunk/pipeline")

const DefaultConcurrency = 4

var (
	ErrNoEditor           = errors.New("no editor configured")
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
)

// Stages reported through Progress.Stage.
const (
	StageSplitting  = "splitting"
	StageEditing    = "editing"
	StageMerging    = "merging"
	StageValidating = "validating"
	StageDone       = "done"
)

// Editor rewrites the text of one chunk. OverlapStart and OverlapEnd are
// context only and should not be part of the returned text.
type Editor interface {
	Edit(ctx context.Context, c chunk.Chunk) (string, error)
}

// EditorFunc adapts a function to the Editor interface.
type EditorFunc func(ctx context.Context, c chunk.Chunk) (string, error)

func (f EditorFunc) Edit(ctx context.Context, c chunk.Chunk) (string, error) {
	return f(ctx, c)
}

// Progress is one step of a run.
type Progress struct {
	JobID        string `json:"job_id"`
	Stage        string `json:"stage"`
	Progress     int    `json:"progress"`
	CurrentChunk int    `json:"current_chunk"`
	TotalChunks  int    `json:"total_chunks"`
	Message      string `json:"message"`
}

// ProgressSink receives Progress events. Calls are serialized.
type ProgressSink func(Progress)

// Result is the outcome of a run.
type Result struct {
	JobID string `json:"job_id"`
	Text  string `json:"text"`
	// Chunks is the number of chunks the text was split into.
	Chunks int `json:"chunks"`
	// FallbackChunks lists, in order, the indices of chunks whose edit
	// failed or drifted in length and were kept as they were.
	FallbackChunks []int              `json:"fallback_chunks"`
	Report         chunk.LengthReport `json:"report"`
}

type Pipeline struct {
	editor      Editor
	splitter    *chunk.Splitter
	merger      *chunk.Merger
	tolerance   float64
	concurrency int
	sink        ProgressSink

	splitOptions []chunk.Option
	sinkMu       sync.Mutex
}

type Option func(*Pipeline)

func WithChunkSizes(maxChunkSize, overlapSize int) Option {
	return func(p *Pipeline) {
		p.splitOptions = append(p.splitOptions,
			chunk.WithMaxChunkSize(maxChunkSize),
			chunk.WithOverlapSize(overlapSize),
		)
	}
}

// WithSplitOptions passes extra options to the splitter.
func WithSplitOptions(opts ...chunk.Option) Option {
	return func(p *Pipeline) {
		p.splitOptions = append(p.splitOptions, opts...)
	}
}

func WithMergeOptions(opts ...chunk.MergeOption) Option {
	return func(p *Pipeline) {
		p.merger = chunk.NewMerger(opts...)
	}
}

// WithTolerance sets the allowed word count drift, in percent, both per chunk
// and for the whole document.
func WithTolerance(percent float64) Option {
	return func(p *Pipeline) {
		p.tolerance = percent
	}
}

// WithConcurrency bounds the number of chunks edited at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.concurrency = n
	}
}

func WithProgress(sink ProgressSink) Option {
	return func(p *Pipeline) {
		p.sink = sink
	}
}

func New(editor Editor, opts ...Option) (*Pipeline, error) {
	if editor == nil {
		return nil, ErrNoEditor
	}

	p := &Pipeline{
		editor:      editor,
		merger:      chunk.NewMerger(),
		tolerance:   chunk.DefaultTolerancePercent,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.concurrency <= 0 {
		return nil, ErrInvalidConcurrency
	}

	splitter, err := chunk.NewSplitter(p.splitOptions...)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking options: %w", err)
	}
	p.splitter = splitter

	return p, nil
}

// NewFromConfig returns a Pipeline using the chunk sizes, tolerance and
// concurrency of cfg. opts are applied after those.
func NewFromConfig(editor Editor, cfg *config.Config, opts ...Option) (*Pipeline, error) {
	base := []Option{
		WithChunkSizes(cfg.MaxChunkSize, cfg.OverlapSize),
		WithTolerance(cfg.TolerancePercent),
		WithConcurrency(cfg.Concurrency),
	}
	return New(editor, append(base, opts...)...)
}

// Run edits text chunk by chunk and reassembles it. A chunk is kept unchanged
// when its edit returns an error or changes its word count beyond the
// tolerance, so Run only fails when ctx is done.
func (p *Pipeline) Run(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	jobID := uuid.New().String()

	ctx, span := tracer.Start(ctx, "pipeline.Run",
		trace.WithAttributes(attribute.String("job.id", jobID)))
	defer span.End()

	p.report(Progress{JobID: jobID, Stage: StageSplitting, Message: "splitting manuscript"})

	chunks := p.splitter.Split(text)
	total := len(chunks)
	metrics.SplitInputSize.Observe(float64(utf8.RuneCountInString(text)))
	metrics.ChunksProduced.Observe(float64(total))
	span.SetAttributes(attribute.Int("chunks", total))
	xlog.Info("Manuscript split", "job", jobID, "chunks", total, "max_chunk_size", p.splitter.MaxChunkSize())

	edited := make([]string, total)
	fallback := make([]bool, total)
	var (
		mu        sync.Mutex
		completed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			out, ok := p.editChunk(gctx, jobID, c)
			if !ok && ctx.Err() != nil {
				return ctx.Err()
			}
			edited[i] = out
			fallback[i] = !ok

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()

			p.report(Progress{
				JobID:        jobID,
				Stage:        StageEditing,
				Progress:     10 + 80*done/total,
				CurrentChunk: c.Index + 1,
				TotalChunks:  total,
				Message:      fmt.Sprintf("edited chunk %d of %d", c.Index+1, total),
			})
			return nil
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("cancelled").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline aborted")
		xlog.Warn("Pipeline aborted", "job", jobID, "error", err)
		return nil, err
	}

	result := &Result{JobID: jobID, Chunks: total, FallbackChunks: []int{}}
	for i, kept := range fallback {
		if kept {
			result.FallbackChunks = append(result.FallbackChunks, i)
		}
	}
	metrics.PipelineFallbacks.Add(float64(len(result.FallbackChunks)))
	span.SetAttributes(attribute.Int("chunks.fallback", len(result.FallbackChunks)))

	p.report(Progress{JobID: jobID, Stage: StageMerging, Progress: 90, TotalChunks: total, Message: "merging chunks"})

	merged, stats := p.merger.MergeWithStats(edited)
	metrics.ObserveMerge(stats.Collapsed)
	if stats.Fallbacks > 0 {
		xlog.Debug("No overlap found at some boundaries, concatenated", "job", jobID, "boundaries", stats.Fallbacks)
	}
	result.Text = merged

	p.report(Progress{JobID: jobID, Stage: StageValidating, Progress: 95, TotalChunks: total, Message: "validating length"})

	result.Report = chunk.ValidateLength(text, merged, p.tolerance)
	metrics.ObserveValidation(result.Report.IsValid)
	if !result.Report.IsValid {
		xlog.Warn("Edited manuscript outside length tolerance", "job", jobID, "message", result.Report.Message)
	}

	metrics.PipelineRuns.WithLabelValues("completed").Inc()
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	xlog.Info("Pipeline completed", "job", jobID, "chunks", total, "fallbacks", len(result.FallbackChunks), "duration", time.Since(start))

	p.report(Progress{JobID: jobID, Stage: StageDone, Progress: 100, CurrentChunk: total, TotalChunks: total, Message: result.Report.Message})

	return result, nil
}

// editChunk returns the edited text of c, or its original text and false.
func (p *Pipeline) editChunk(ctx context.Context, jobID string, c chunk.Chunk) (string, bool) {
	ctx, span := tracer.Start(ctx, "pipeline.EditChunk",
		trace.WithAttributes(attribute.Int("chunk.index", c.Index)))
	defer span.End()

	out, err := p.editor.Edit(ctx, c)
	if err != nil {
		span.RecordError(err)
		xlog.Warn("Chunk edit failed, keeping original", "job", jobID, "chunk", c.Index, "error", err)
		return c.Text, false
	}

	report := chunk.ValidateLength(c.Text, out, p.tolerance)
	metrics.ObserveValidation(report.IsValid)
	span.SetAttributes(attribute.Float64("length.ratio", report.Ratio))
	if !report.IsValid {
		xlog.Warn("Chunk edit outside length tolerance, keeping original", "job", jobID, "chunk", c.Index, "message", report.Message)
		return c.Text, false
	}

	return out, true
}

func (p *Pipeline) report(progress Progress) {
	if p.sink == nil {
		return
	}
	p.sinkMu.Lock()
	defer p.sinkMu.Unlock()
	p.sink(progress)
}
