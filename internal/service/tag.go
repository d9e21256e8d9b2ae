package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"paperbase/internal/model"
	"paperbase/internal/repository"
	"paperbase/internal/search"
)

// TagService defines the use cases for tags.
type TagService interface {
	// Create adds a new tag. An empty color defaults; a duplicate name is an
	// invalid-input error.
	Create(ctx context.Context, name, color string) (*model.Tag, error)

	// GetOrCreate resolves a tag by name, creating it with the default color
	// when absent. Matching is case-insensitive.
	GetOrCreate(ctx context.Context, name string) (*model.Tag, error)

	Get(ctx context.Context, id string) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
	Update(ctx context.Context, id, name, color string) (*model.Tag, error)

	// Delete removes the tag and its document associations, then refreshes
	// the affected documents in the search index.
	Delete(ctx context.Context, id string) error
}

type tagService struct {
	tags  repository.TagRepository
	docs  repository.DocumentRepository
	index *search.Index
}

// NewTagService constructs a new TagService.
func NewTagService(tags repository.TagRepository, docs repository.DocumentRepository, index *search.Index) TagService {
	return &tagService{tags: tags, docs: docs, index: index}
}

func (s *tagService) Create(ctx context.Context, name, color string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.E(model.KindInvalidInput, "tag name is required")
	}
	if _, err := s.tags.FindByName(ctx, name); err == nil {
		return nil, model.E(model.KindInvalidInput, "tag %q already exists", name)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if color == "" {
		color = model.DefaultTagColor
	}
	return s.tags.Create(ctx, &model.Tag{ID: uuid.New().String(), Name: name, Color: color})
}

func (s *tagService) GetOrCreate(ctx context.Context, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.E(model.KindInvalidInput, "tag name is required")
	}
	tag, err := s.tags.FindByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return s.tags.Create(ctx, &model.Tag{ID: uuid.New().String(), Name: name, Color: model.DefaultTagColor})
}

func (s *tagService) Get(ctx context.Context, id string) (*model.Tag, error) {
	tag, err := s.tags.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.E(model.KindNotFound, "tag %s not found", id)
		}
		return nil, err
	}
	return tag, nil
}

func (s *tagService) List(ctx context.Context) ([]model.Tag, error) {
	return s.tags.List(ctx)
}

func (s *tagService) Update(ctx context.Context, id, name, color string) (*model.Tag, error) {
	tag, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		tag.Name = name
	}
	if color != "" {
		tag.Color = color
	}
	updated, err := s.tags.Update(ctx, tag)
	if err != nil {
		return nil, err
	}
	// Tag names are denormalized into indexed documents.
	if err := s.refreshDocuments(ctx, s.index.TaggedWith(id)); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *tagService) Delete(ctx context.Context, id string) error {
	docIDs, err := s.tags.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.E(model.KindNotFound, "tag %s not found", id)
		}
		return err
	}
	return s.refreshDocuments(ctx, docIDs)
}

func (s *tagService) refreshDocuments(ctx context.Context, docIDs []string) error {
	for _, docID := range docIDs {
		doc, err := s.docs.FindByID(ctx, docID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.index.Remove(docID)
				continue
			}
			return err
		}
		s.index.Upsert(doc)
	}
	return nil
}
