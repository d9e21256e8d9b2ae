package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"paperbase/internal/model"
	"paperbase/internal/repository"
	"paperbase/internal/search"
	"paperbase/internal/storage"
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// SystemStorageInfo is the introspection view of the storage backend.
type SystemStorageInfo struct {
	Backend       string `json:"storage_type"`
	Location      string `json:"storage_location"`
	DocumentCount int    `json:"total_documents"`
	TotalBytes    int64  `json:"total_size"`
}

// DocumentService defines the use cases for stored document records.
type DocumentService interface {
	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// List returns documents using limit/offset and a total count,
	// optionally restricted to one folder path.
	List(ctx context.Context, limit, offset int, folderPath string) (*DocumentListResult, error)

	// Delete removes the document's blobs first, then its record and index
	// entry. A blob deletion failure aborts with the record intact.
	Delete(ctx context.Context, id string) error

	// OpenOriginal streams the stored original content.
	OpenOriginal(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, *model.Document, error)

	// OpenThumbnail streams the stored thumbnail, if one was generated.
	OpenThumbnail(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, *model.Document, error)

	// AddTag associates an existing tag with a document.
	AddTag(ctx context.Context, docID, tagID string) (*model.Document, error)

	// RemoveTag dissociates a tag from a document.
	RemoveTag(ctx context.Context, docID, tagID string) (*model.Document, error)

	// StorageInfo aggregates backend identity and usage.
	StorageInfo(ctx context.Context) (*SystemStorageInfo, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store   storage.Storage
	repo    repository.DocumentRepository
	tagRepo repository.TagRepository
	index   *search.Index
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, tagRepo repository.TagRepository, index *search.Index) DocumentService {
	return &documentService{store: store, repo: repo, tagRepo: tagRepo, index: index}
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	return s.find(ctx, id)
}

func (s *documentService) find(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, model.E(model.KindInvalidInput, "document id is required")
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.E(model.KindNotFound, "document %s not found", id)
		}
		return nil, err
	}
	return doc, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int, folderPath string) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	if folderPath != "" {
		folderPath = model.NormalizeFolderPath(folderPath)
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset, FolderPath: folderPath})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Delete removes blobs before the record so a failure never leaves a record
// pointing at deleted content while content outlives its record at worst.
func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		return fmt.Errorf("delete original: %w", err)
	}
	if doc.ThumbnailKey != "" {
		if err := s.store.Delete(ctx, doc.ThumbnailKey); err != nil {
			return fmt.Errorf("delete thumbnail: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.index.Remove(id)
	return nil
}

func (s *documentService) OpenOriginal(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, *model.Document, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, nil, err
	}
	rc, info, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, storage.ObjectInfo{}, nil, err
	}
	return rc, info, doc, nil
}

func (s *documentService) OpenThumbnail(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, *model.Document, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, nil, err
	}
	if doc.ThumbnailKey == "" {
		return nil, storage.ObjectInfo{}, nil, model.E(model.KindNotFound, "document %s has no thumbnail", id)
	}
	rc, info, err := s.store.Get(ctx, doc.ThumbnailKey)
	if err != nil {
		return nil, storage.ObjectInfo{}, nil, err
	}
	return rc, info, doc, nil
}

func (s *documentService) AddTag(ctx context.Context, docID, tagID string) (*model.Document, error) {
	doc, err := s.find(ctx, docID)
	if err != nil {
		return nil, err
	}
	tag, err := s.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.E(model.KindNotFound, "tag %s not found", tagID)
		}
		return nil, err
	}
	if doc.HasTag(tag.ID) {
		return doc, nil
	}
	doc.Tags = append(doc.Tags, *tag)
	updated, err := s.repo.Update(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.index.Upsert(updated)
	return updated, nil
}

func (s *documentService) RemoveTag(ctx context.Context, docID, tagID string) (*model.Document, error) {
	doc, err := s.find(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !doc.HasTag(tagID) {
		return nil, model.E(model.KindNotFound, "document %s does not carry tag %s", docID, tagID)
	}
	kept := doc.Tags[:0]
	for _, t := range doc.Tags {
		if t.ID != tagID {
			kept = append(kept, t)
		}
	}
	doc.Tags = kept
	updated, err := s.repo.Update(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.index.Upsert(updated)
	return updated, nil
}

func (s *documentService) StorageInfo(ctx context.Context) (*SystemStorageInfo, error) {
	count, total, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	backend := s.store.Info()
	return &SystemStorageInfo{
		Backend:       backend.Kind,
		Location:      backend.Location,
		DocumentCount: count,
		TotalBytes:    total,
	}, nil
}
