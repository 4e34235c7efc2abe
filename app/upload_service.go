package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"goattend/domain/ingestion"
	"goattend/internal"
	"goattend/internal/config"
	"goattend/internal/errors"
	"goattend/internal/ingest"
	"goattend/ports"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// ErrNoFiles is returned when an upload carries no files
var ErrNoFiles = errors.InvalidInput("No files selected")

// UploadFile is one file of an upload request. Open is called at most once.
type UploadFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileResult is the outcome of ingesting one file
type FileResult struct {
	Name      string                 `json:"name"`
	Success   bool                   `json:"success"`
	Error     string                 `json:"error,omitempty"`
	Summary   ingestion.MergeSummary `json:"summary"`
	Unmapped  []string               `json:"unmapped_courses,omitempty"`
	RuntimeMs int64                  `json:"runtime_ms"`
}

// UploadOutcome aggregates the per-file results of one upload request
type UploadOutcome struct {
	BatchID   string       `json:"batch_id"`
	Results   []FileResult `json:"results"`
	Processed int          `json:"processed"`
	Errors    []string     `json:"errors,omitempty"`
	Message   string       `json:"message"`
}

// Success reports whether at least one file was ingested
func (o *UploadOutcome) Success() bool {
	return o.Processed > 0
}

// UploadService runs uploaded files through read, parse and reconcile, one file at a time.
type UploadService struct {
	reader     ports.GridReader
	reconciler *ReconciliationService
	opts       ingest.Options
	maxFiles   int
	sem        *semaphore.Weighted
	logger     *internal.Logger
}

// NewUploadService creates an upload service
func NewUploadService(reader ports.GridReader, reconciler *ReconciliationService, ingestCfg config.IngestConfig, uploadCfg config.UploadConfig, logger *internal.Logger) *UploadService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	jobs := uploadCfg.MaxConcurrentJobs
	if jobs < 1 {
		jobs = 1
	}
	return &UploadService{
		reader:     reader,
		reconciler: reconciler,
		opts:       ingest.OptionsFromConfig(ingestCfg),
		maxFiles:   uploadCfg.MaxFiles,
		sem:        semaphore.NewWeighted(jobs),
		logger:     logger.With("Upload"),
	}
}

// ProcessUploads ingests files sequentially. Per-file failures are collected in the outcome;
// only request-level problems (no files, too many files, cancelled while queued) return an error.
func (s *UploadService) ProcessUploads(ctx context.Context, files []UploadFile) (*UploadOutcome, error) {
	if len(files) == 0 || (len(files) == 1 && files[0].Name == "") {
		return nil, ErrNoFiles
	}
	if s.maxFiles > 0 && len(files) > s.maxFiles {
		return nil, errors.InvalidInput(fmt.Sprintf("Maximum %d files allowed at once", s.maxFiles))
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "upload cancelled while waiting for a free slot")
	}
	defer s.sem.Release(1)

	// Once admitted, every file runs to completion even if the client goes away.
	ctx = context.WithoutCancel(ctx)

	outcome := &UploadOutcome{BatchID: uuid.New().String()}
	s.logger.Info("batch %s: processing %d file(s)", outcome.BatchID, len(files))

	for _, f := range files {
		if _, err := ingestion.KindFromName(f.Name); err != nil || f.Open == nil {
			msg := "Invalid file type: " + f.Name
			outcome.Errors = append(outcome.Errors, msg)
			outcome.Results = append(outcome.Results, FileResult{Name: f.Name, Error: msg})
			continue
		}

		result := s.processFile(ctx, f)
		if result.Success {
			outcome.Processed++
		} else {
			outcome.Errors = append(outcome.Errors, result.Error)
		}
		outcome.Results = append(outcome.Results, result)
	}

	outcome.Message = uploadMessage(outcome.Processed, outcome.Errors)
	s.logger.Info("batch %s: %s", outcome.BatchID, outcome.Message)
	return outcome, nil
}

// IngestPath reads one roster from disk, as the CLI does.
func (s *UploadService) IngestPath(ctx context.Context, path string) (FileResult, error) {
	name := filepath.Base(path)
	if _, err := ingestion.KindFromName(name); err != nil {
		return FileResult{Name: name, Error: "Invalid file type: " + name}, errors.UnsupportedFile(name)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return FileResult{Name: name}, errors.Wrap(err, "ingest cancelled")
	}
	defer s.sem.Release(1)

	result, err := s.ingest(context.WithoutCancel(ctx), name, func(ctx context.Context) (ingestion.Grid, error) {
		return s.reader.ReadFile(ctx, path)
	})
	if err != nil {
		result.Error = "Failed to process: " + name
	}
	return result, err
}

func (s *UploadService) processFile(ctx context.Context, f UploadFile) FileResult {
	result, err := s.ingest(ctx, f.Name, func(ctx context.Context) (ingestion.Grid, error) {
		kind, err := ingestion.KindFromName(f.Name)
		if err != nil {
			return nil, errors.UnsupportedFile(f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", f.Name)
		}
		defer rc.Close()
		return s.reader.ReadGrid(ctx, rc, kind)
	})
	if err != nil {
		s.logger.Error("failed to process %s: %v", f.Name, err)
		result.Error = "Failed to process: " + f.Name
	}
	return result
}

// ingest parses the grid returned by read and reconciles it. The returned result always
// carries the file name and runtime.
func (s *UploadService) ingest(ctx context.Context, name string, read func(context.Context) (ingestion.Grid, error)) (result FileResult, err error) {
	start := time.Now()
	result.Name = name
	defer func() { result.RuntimeMs = time.Since(start).Milliseconds() }()

	grid, err := read(ctx)
	if err != nil {
		return result, err
	}

	parsed := ingest.Parse(grid, s.opts)
	if len(parsed.Columns.Unmapped) > 0 {
		s.logger.Warn("%s: no attendance columns for courses %s", name, strings.Join(parsed.Columns.Unmapped, ", "))
	}
	if !parsed.MarkerFound {
		s.logger.Debug("%s: no column label row found, data assumed to start at row %d", name, parsed.DataStartRow)
	}
	result.Unmapped = parsed.Columns.Unmapped

	summary, err := s.reconciler.Reconcile(ctx, parsed)
	result.Summary = summary
	if err != nil {
		return result, err
	}

	result.Success = true
	s.logger.Info("%s: %d students, %d tuples, %s", name, len(parsed.Students), len(parsed.Attendance), summary)
	return result, nil
}

func uploadMessage(processed int, errs []string) string {
	if processed > 0 {
		msg := fmt.Sprintf("Successfully processed %d file(s).", processed)
		if len(errs) > 0 {
			msg += fmt.Sprintf(" %d file(s) had errors.", len(errs))
		}
		return msg
	}

	msg := "No files were processed successfully."
	if len(errs) > 0 {
		shown := errs
		if len(shown) > 3 {
			shown = shown[:3]
		}
		msg += " Errors: " + strings.Join(shown, "; ")
	}
	return msg
}
