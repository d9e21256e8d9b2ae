package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"paperbase/internal/archive"
	"paperbase/internal/lock"
	"paperbase/internal/model"
	"paperbase/internal/ocr"
	"paperbase/internal/repository"
	"paperbase/internal/search"
	"paperbase/internal/storage"
	"paperbase/internal/thumbnail"
)

// UploadResult reports the outcome of one ingestion unit.
type UploadResult struct {
	DocumentID    string              `json:"document_id,omitempty"`
	Filename      string              `json:"filename"`
	Status        model.OCRStatus     `json:"status,omitempty"`
	FailureReason model.FailureReason `json:"failure_reason,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// UploadOutcome is the full upload response: one result per unit, plus a
// warning flag when archive expansion was truncated.
type UploadOutcome struct {
	Results   []UploadResult `json:"results"`
	Truncated bool           `json:"truncated,omitempty"`
}

// UploadOptions carry the optional upload form fields.
type UploadOptions struct {
	TagNames   []string
	FolderPath string
	EngineID   string
}

// IngestService runs the upload and reprocess pipelines.
type IngestService interface {
	// Upload expands the artifact into units and runs each through
	// store-record-recognize. A unit failure never aborts its siblings.
	Upload(ctx context.Context, data []byte, declaredMime, filename string, opts UploadOptions) (*UploadOutcome, error)

	// Reprocess resets a completed or failed document and runs recognition
	// again on the stored blob. It returns once the job is accepted; the
	// recognition itself runs in the background.
	Reprocess(ctx context.Context, id, engineID string) (*model.Document, error)
}

type ingestService struct {
	store      storage.Storage
	docs       repository.DocumentRepository
	tags       TagService
	engines    *ocr.Registry
	guard      lock.Keyed
	index      *search.Index
	limits     archive.Limits
	sem        *semaphore.Weighted
	jobTimeout time.Duration
	metrics    *IngestMetrics
}

// NewIngestService constructs the orchestrator. workers bounds concurrent
// recognition calls process-wide; jobTimeout bounds one recognition call.
func NewIngestService(
	store storage.Storage,
	docs repository.DocumentRepository,
	tags TagService,
	engines *ocr.Registry,
	guard lock.Keyed,
	index *search.Index,
	limits archive.Limits,
	workers int,
	jobTimeout time.Duration,
	metrics *IngestMetrics,
) IngestService {
	if workers <= 0 {
		workers = 1
	}
	return &ingestService{
		store:      store,
		docs:       docs,
		tags:       tags,
		engines:    engines,
		guard:      guard,
		index:      index,
		limits:     limits,
		sem:        semaphore.NewWeighted(int64(workers)),
		jobTimeout: jobTimeout,
		metrics:    metrics,
	}
}

func (s *ingestService) Upload(ctx context.Context, data []byte, declaredMime, filename string, opts UploadOptions) (*UploadOutcome, error) {
	expansion, err := archive.Expand(data, declaredMime, filename, s.limits)
	if err != nil {
		return nil, err
	}
	units, err := expansion.Collect()
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, model.E(model.KindNoEligibleContent, "archive %q contains no recognizable files", filename)
	}

	tagSet := make([]model.Tag, 0, len(opts.TagNames))
	for _, name := range opts.TagNames {
		tag, err := s.tags.GetOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		tagSet = append(tagSet, *tag)
	}
	folderPath := model.NormalizeFolderPath(opts.FolderPath)

	results := make([]UploadResult, len(units))
	g, gctx := errgroup.WithContext(ctx)
	for i, unit := range units {
		g.Go(func() error {
			results[i] = s.ingestUnit(gctx, unit, tagSet, folderPath, opts.EngineID)
			return nil
		})
	}
	g.Wait()

	return &UploadOutcome{Results: results, Truncated: expansion.Truncated}, nil
}

// ingestUnit runs one unit through store, record, thumbnail and recognition.
// Failures are captured in the result so sibling units proceed untouched.
func (s *ingestService) ingestUnit(ctx context.Context, unit archive.Unit, tags []model.Tag, folderPath, engineID string) UploadResult {
	id := uuid.New().String()
	key := filepath.ToSlash(filepath.Join("documents", id+filepath.Ext(unit.Filename)))

	if _, err := s.store.Put(ctx, key, bytes.NewReader(unit.Data), storage.PutOptions{
		Size:        int64(len(unit.Data)),
		ContentType: unit.MimeType,
		Metadata:    map[string]string{"original-filename": unit.Filename},
	}); err != nil {
		logEvent("unit_store_failed", map[string]any{"filename": unit.Filename, "error": err.Error()})
		return UploadResult{Filename: unit.Filename, Error: fmt.Sprintf("store content: %v", err)}
	}

	doc := model.NewDocument(id, unit.Filename, unit.MimeType, int64(len(unit.Data)), folderPath, key)
	doc.Tags = tags
	doc.ThumbnailKey = s.putThumbnail(ctx, id, unit)

	created, err := s.docs.Create(ctx, doc)
	if err != nil {
		// Keep storage consistent with the absent record.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logEvent("unit_rollback_failed", map[string]any{"key": key, "error": delErr.Error()})
		}
		return UploadResult{Filename: unit.Filename, Error: fmt.Sprintf("save record: %v", err)}
	}
	s.index.Upsert(created)
	s.metrics.recordIngested()

	final := s.process(ctx, created, unit.Data, engineID)
	return UploadResult{
		DocumentID:    final.ID,
		Filename:      final.Filename,
		Status:        final.OCRStatus,
		FailureReason: final.FailureReason,
	}
}

// putThumbnail is best effort: any failure leaves the document without one.
func (s *ingestService) putThumbnail(ctx context.Context, id string, unit archive.Unit) string {
	png, err := thumbnail.Generate(unit.Data, unit.MimeType, thumbnail.DefaultMaxSize, thumbnail.DefaultMaxSize)
	if err != nil {
		if !errors.Is(err, thumbnail.ErrUnsupported) {
			logEvent("thumbnail_failed", map[string]any{"document_id": id, "error": err.Error()})
		}
		return ""
	}
	key := "thumbnails/" + id + ".png"
	if _, err := s.store.Put(ctx, key, bytes.NewReader(png), storage.PutOptions{
		Size:        int64(len(png)),
		ContentType: "image/png",
	}); err != nil {
		logEvent("thumbnail_failed", map[string]any{"document_id": id, "error": err.Error()})
		return ""
	}
	return key
}

// process takes the per-document guard and drives one recognition job to a
// terminal status. The returned document reflects the final record state.
func (s *ingestService) process(ctx context.Context, doc *model.Document, data []byte, engineID string) *model.Document {
	release, ok, err := s.guard.TryAcquire(ctx, doc.ID)
	if err != nil || !ok {
		// The record stays pending; a reprocess can pick it up later.
		if err != nil {
			logEvent("guard_failed", map[string]any{"document_id": doc.ID, "error": err.Error()})
		}
		return doc
	}
	defer release()
	return s.processLocked(ctx, doc, data, engineID)
}

// finish moves the document to its terminal status and persists it.
func (s *ingestService) finish(ctx context.Context, doc *model.Document, engineID string, result *ocr.Result, reason model.FailureReason) *model.Document {
	version := ""
	if engineID != "" {
		if e, err := s.engines.Resolve(engineID); err == nil {
			version = e.Version()
		}
	}
	if result != nil {
		if err := doc.CompleteOCR(result.Text, engineID, version); err != nil {
			logEvent("status_transition_failed", map[string]any{"document_id": doc.ID, "error": err.Error()})
		}
		s.metrics.recordOCR(engineID, string(model.StatusCompleted))
	} else {
		if err := doc.FailOCR(reason); err != nil {
			logEvent("status_transition_failed", map[string]any{"document_id": doc.ID, "error": err.Error()})
		}
		s.metrics.recordOCR(engineID, string(model.StatusFailed))
	}
	if updated, err := s.docs.Update(ctx, doc); err == nil {
		doc = updated
	} else {
		logEvent("record_update_failed", map[string]any{"document_id": doc.ID, "error": err.Error()})
	}
	s.index.Upsert(doc)
	return doc
}

func (s *ingestService) Reprocess(ctx context.Context, id, engineID string) (*model.Document, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.E(model.KindNotFound, "document %s not found", id)
		}
		return nil, err
	}

	release, ok, err := s.guard.TryAcquire(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.E(model.KindAlreadyProcessing, "document %s is already processing", id)
	}

	if err := doc.ResetForReprocess(); err != nil {
		release()
		return nil, err
	}
	if doc, err = s.docs.Update(ctx, doc); err != nil {
		release()
		return nil, err
	}
	s.index.Upsert(doc)

	// The goroutine works on its own copy: the returned record is read by the
	// caller (JSON serialization) after this function returns.
	job := *doc
	go func() {
		defer release()
		ctx := context.Background()
		data, err := s.readOriginal(ctx, job.StorageKey)
		if err != nil {
			logEvent("reprocess_read_failed", map[string]any{"document_id": id, "error": err.Error()})
			if job.BeginProcessing() == nil {
				s.finish(ctx, &job, "", nil, model.ReasonRecognitionFailed)
			}
			return
		}
		s.processLocked(ctx, &job, data, engineID)
	}()

	return doc, nil
}

// processLocked drives one recognition job for a caller holding the guard.
func (s *ingestService) processLocked(ctx context.Context, doc *model.Document, data []byte, engineID string) *model.Document {
	if err := doc.BeginProcessing(); err != nil {
		logEvent("status_transition_failed", map[string]any{"document_id": doc.ID, "error": err.Error()})
		return doc
	}
	if updated, err := s.docs.Update(ctx, doc); err == nil {
		doc = updated
	}
	s.index.Upsert(doc)

	engine, err := s.engines.Resolve(engineID)
	if err != nil {
		return s.finish(ctx, doc, "", nil, model.ReasonEngineUnavailable)
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return s.finish(ctx, doc, engine.ID(), nil, model.ReasonTimeout)
	}
	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	result, recErr := engine.Recognize(jobCtx, data, doc.MimeType)
	cancel()
	s.sem.Release(1)

	if recErr != nil {
		reason := model.ReasonRecognitionFailed
		if errors.Is(recErr, context.DeadlineExceeded) {
			reason = model.ReasonTimeout
		}
		logEvent("ocr_failed", map[string]any{
			"document_id": doc.ID,
			"engine":      engine.ID(),
			"error":       recErr.Error(),
		})
		return s.finish(ctx, doc, engine.ID(), nil, reason)
	}
	return s.finish(ctx, doc, engine.ID(), &result, "")
}

func (s *ingestService) readOriginal(ctx context.Context, key string) ([]byte, error) {
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// logEvent writes one JSON object per line, matching the request logger.
func logEvent(event string, fields map[string]any) {
	data := map[string]any{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"event": event,
	}
	for k, v := range fields {
		data[k] = v
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal ingest log: %v", err)
		return
	}
	log.Println(string(b))
}
