package postgres

import (
	"context"
	"database/sql"

	"paperbase/internal/model"
	"paperbase/internal/repository"
)

// TagPostgres is a PostgreSQL implementation of repository.TagRepository.
type TagPostgres struct {
	db *sql.DB
}

// NewTagPostgres creates a new TagPostgres repository.
func NewTagPostgres(db *sql.DB) *TagPostgres {
	return &TagPostgres{db: db}
}

var _ repository.TagRepository = (*TagPostgres)(nil)

func (r *TagPostgres) Create(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	const q = `
		INSERT INTO tags (id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id, name, color
	`
	var out model.Tag
	if err := r.db.QueryRowContext(ctx, q, tag.ID, tag.Name, tag.Color).
		Scan(&out.ID, &out.Name, &out.Color); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TagPostgres) FindByID(ctx context.Context, id string) (*model.Tag, error) {
	const q = `SELECT id, name, color FROM tags WHERE id = $1`
	var t model.Tag
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &t.Color); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TagPostgres) FindByName(ctx context.Context, name string) (*model.Tag, error) {
	const q = `SELECT id, name, color FROM tags WHERE LOWER(name) = LOWER($1)`
	var t model.Tag
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&t.ID, &t.Name, &t.Color); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TagPostgres) List(ctx context.Context) ([]model.Tag, error) {
	const q = `SELECT id, name, color FROM tags ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]model.Tag, 0)
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *TagPostgres) Update(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	const q = `
		UPDATE tags SET name = $2, color = $3
		WHERE id = $1
		RETURNING id, name, color
	`
	var out model.Tag
	if err := r.db.QueryRowContext(ctx, q, tag.ID, tag.Name, tag.Color).
		Scan(&out.ID, &out.Name, &out.Color); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the tag and its associations, returning the ids of documents
// that carried it.
func (r *TagPostgres) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT document_id FROM document_tags WHERE tag_id = $1`, id)
	if err != nil {
		return nil, err
	}
	var docIDs []string
	for rows.Next() {
		var docID string
		if err := rows.Scan(&docID); err != nil {
			rows.Close()
			return nil, err
		}
		docIDs = append(docIDs, docID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return docIDs, nil
}
