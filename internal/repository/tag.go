package repository

import (
	"context"

	"paperbase/internal/model"
)

// TagRepository defines data access for tags and their document associations.
type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) (*model.Tag, error)

	FindByID(ctx context.Context, id string) (*model.Tag, error)

	// FindByName matches case-insensitively; tag names are unique.
	FindByName(ctx context.Context, name string) (*model.Tag, error)

	List(ctx context.Context) ([]model.Tag, error)

	Update(ctx context.Context, tag *model.Tag) (*model.Tag, error)

	// Delete removes the tag and all of its document associations. It returns
	// the ids of documents that carried the tag so callers can refresh derived
	// state (e.g. the search index).
	Delete(ctx context.Context, id string) ([]string, error)
}
