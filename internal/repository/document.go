package repository

import (
	"context"

	"paperbase/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record including its tag associations.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document with its tags by id.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// Update persists the document's mutable fields and replaces its tag set.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Delete removes a document by id. It returns nil if the row was deleted
	// or did not exist.
	Delete(ctx context.Context, id string) error

	// List returns a paginated list of documents and total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// All streams every document; used to rebuild the search index at startup.
	All(ctx context.Context) ([]model.Document, error)

	// Stats returns the document count and total stored bytes.
	Stats(ctx context.Context) (count int, totalBytes int64, err error)
}
