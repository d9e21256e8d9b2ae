package model

import (
	"path"
	"strings"
	"time"
)

// OCRStatus is the processing state of a document.
type OCRStatus string

const (
	StatusPending    OCRStatus = "pending"
	StatusProcessing OCRStatus = "processing"
	StatusCompleted  OCRStatus = "completed"
	StatusFailed     OCRStatus = "failed"
)

// FailureReason records why OCR processing ended in StatusFailed.
type FailureReason string

const (
	ReasonEngineUnavailable FailureReason = "engine_unavailable"
	ReasonRecognitionFailed FailureReason = "recognition_failed"
	ReasonTimeout           FailureReason = "timeout"
)

// Document represents one processed artifact unit.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID               string            `json:"id"`
	Filename         string            `json:"filename"`
	MimeType         string            `json:"mime_type"`
	Size             int64             `json:"size"`
	FolderPath       string            `json:"folder_path"`
	StorageKey       string            `json:"storage_key"`
	ThumbnailKey     string            `json:"thumbnail_key,omitempty"`
	UploadedAt       time.Time         `json:"uploaded_at"`
	OCRStatus        OCRStatus         `json:"ocr_status"`
	OCRText          *string           `json:"ocr_text,omitempty"`
	OCREngine        *string           `json:"ocr_engine,omitempty"`
	OCREngineVersion *string           `json:"ocr_engine_version,omitempty"`
	FailureReason    FailureReason     `json:"failure_reason,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Tags             []Tag             `json:"tags"`
}

// NormalizeFolderPath cleans a user-supplied folder path. The result is always
// non-empty, slash-delimited and rooted at "/".
func NormalizeFolderPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// NewDocument builds a document in StatusPending for a durably stored original.
func NewDocument(id, filename, mimeType string, size int64, folderPath, storageKey string) *Document {
	return &Document{
		ID:         id,
		Filename:   filename,
		MimeType:   mimeType,
		Size:       size,
		FolderPath: NormalizeFolderPath(folderPath),
		StorageKey: storageKey,
		UploadedAt: time.Now().UTC(),
		OCRStatus:  StatusPending,
		Tags:       []Tag{},
	}
}

// BeginProcessing moves the document into StatusProcessing. Only pending
// documents may be dispatched; everything else is rejected so that at most one
// job per document is ever in flight.
func (d *Document) BeginProcessing() error {
	if d.OCRStatus == StatusProcessing {
		return E(KindAlreadyProcessing, "document %s is already processing", d.ID)
	}
	if d.OCRStatus != StatusPending {
		return E(KindInvalidInput, "document %s cannot start processing from status %q", d.ID, d.OCRStatus)
	}
	d.OCRStatus = StatusProcessing
	return nil
}

// CompleteOCR records a successful recognition. Text may be empty but is never
// nil on a completed document.
func (d *Document) CompleteOCR(text, engineID, engineVersion string) error {
	if d.OCRStatus != StatusProcessing {
		return E(KindInvalidInput, "document %s cannot complete from status %q", d.ID, d.OCRStatus)
	}
	d.OCRStatus = StatusCompleted
	d.OCRText = &text
	d.OCREngine = &engineID
	d.OCREngineVersion = &engineVersion
	d.FailureReason = ""
	return nil
}

// FailOCR records a failed recognition. No text is stored; the reason code is
// retained for observability.
func (d *Document) FailOCR(reason FailureReason) error {
	if d.OCRStatus != StatusProcessing {
		return E(KindInvalidInput, "document %s cannot fail from status %q", d.ID, d.OCRStatus)
	}
	d.OCRStatus = StatusFailed
	d.OCRText = nil
	d.OCREngine = nil
	d.OCREngineVersion = nil
	d.FailureReason = reason
	return nil
}

// ResetForReprocess returns the document to StatusPending and clears prior OCR
// results. A document with a job in flight cannot be reset.
func (d *Document) ResetForReprocess() error {
	if d.OCRStatus == StatusProcessing {
		return E(KindAlreadyProcessing, "document %s is already processing", d.ID)
	}
	d.OCRStatus = StatusPending
	d.OCRText = nil
	d.OCREngine = nil
	d.OCREngineVersion = nil
	d.FailureReason = ""
	return nil
}

// HasTag reports whether the document carries the tag with the given id.
func (d *Document) HasTag(tagID string) bool {
	for _, t := range d.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}
