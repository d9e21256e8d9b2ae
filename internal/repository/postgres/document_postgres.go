package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"paperbase/internal/model"
	"paperbase/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, filename, mime_type, size, folder_path, storage_key, thumbnail_key,
		uploaded_at, ocr_status, ocr_text, ocr_engine, ocr_engine_version, failure_reason, metadata`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	var thumbnail, ocrText, ocrEngine, ocrEngineVersion, failureReason sql.NullString
	var status string
	var metadata []byte
	if err := row.Scan(
		&d.ID,
		&d.Filename,
		&d.MimeType,
		&d.Size,
		&d.FolderPath,
		&d.StorageKey,
		&thumbnail,
		&d.UploadedAt,
		&status,
		&ocrText,
		&ocrEngine,
		&ocrEngineVersion,
		&failureReason,
		&metadata,
	); err != nil {
		return nil, err
	}
	d.OCRStatus = model.OCRStatus(status)
	d.ThumbnailKey = thumbnail.String
	d.FailureReason = model.FailureReason(failureReason.String)
	if ocrText.Valid {
		d.OCRText = &ocrText.String
	}
	if ocrEngine.Valid {
		d.OCREngine = &ocrEngine.String
	}
	if ocrEngineVersion.Valid {
		d.OCREngineVersion = &ocrEngineVersion.String
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &d.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	d.Tags = []model.Tag{}
	return &d, nil
}

func documentArgs(doc *model.Document) ([]any, error) {
	metadata := []byte("{}")
	if len(doc.Metadata) > 0 {
		b, err := json.Marshal(doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		metadata = b
	}
	return []any{
		doc.ID,
		doc.Filename,
		doc.MimeType,
		doc.Size,
		doc.FolderPath,
		doc.StorageKey,
		nullString(doc.ThumbnailKey),
		doc.UploadedAt,
		string(doc.OCRStatus),
		nullStringPtr(doc.OCRText),
		nullStringPtr(doc.OCREngine),
		nullStringPtr(doc.OCREngineVersion),
		nullString(string(doc.FailureReason)),
		metadata,
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Create inserts a new document row and its tag associations.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args, err := documentArgs(doc)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return nil, err
	}
	if err := replaceTagLinks(ctx, tx, doc); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return doc, nil
}

// FindByID fetches a single document with its tags.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadTags(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update persists all mutable document fields and replaces the tag set.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args, err := documentArgs(doc)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const q = `
		UPDATE documents SET
			filename = $2, mime_type = $3, size = $4, folder_path = $5,
			storage_key = $6, thumbnail_key = $7, uploaded_at = $8,
			ocr_status = $9, ocr_text = $10, ocr_engine = $11,
			ocr_engine_version = $12, failure_reason = $13, metadata = $14
		WHERE id = $1
	`
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, sql.ErrNoRows
	}
	const clear = `DELETE FROM document_tags WHERE document_id = $1`
	if _, err := tx.ExecContext(ctx, clear, doc.ID); err != nil {
		return nil, err
	}
	if err := replaceTagLinks(ctx, tx, doc); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return doc, nil
}

func replaceTagLinks(ctx context.Context, tx *sql.Tx, doc *model.Document) error {
	const link = `INSERT INTO document_tags (document_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for _, t := range doc.Tags {
		if _, err := tx.ExecContext(ctx, link, doc.ID, t.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *DocumentPostgres) loadTags(ctx context.Context, doc *model.Document) error {
	const q = `
		SELECT t.id, t.name, t.color
		FROM tags t
		JOIN document_tags dt ON dt.tag_id = t.id
		WHERE dt.document_id = $1
		ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, q, doc.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return err
		}
		doc.Tags = append(doc.Tags, t)
	}
	return rows.Err()
}

// Delete removes a document by id. Join rows cascade via the schema.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// List returns documents using LIMIT/OFFSET pagination and a total count,
// optionally filtered to one folder path.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	var (
		total int
		rows  *sql.Rows
		err   error
	)
	if pq.FolderPath != "" {
		if err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM documents WHERE folder_path = $1`, pq.FolderPath).Scan(&total); err != nil {
			return nil, err
		}
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+documentColumns+` FROM documents
			WHERE folder_path = $1
			ORDER BY uploaded_at DESC, id DESC
			LIMIT $2 OFFSET $3`, pq.FolderPath, pq.Limit, pq.Offset)
	} else {
		if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&total); err != nil {
			return nil, err
		}
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+documentColumns+` FROM documents
			ORDER BY uploaded_at DESC, id DESC
			LIMIT $1 OFFSET $2`, pq.Limit, pq.Offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range items {
		if err := r.loadTags(ctx, &items[i]); err != nil {
			return nil, err
		}
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

// All returns every document with tags; used to rebuild the search index.
func (r *DocumentPostgres) All(ctx context.Context) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range items {
		if err := r.loadTags(ctx, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Stats returns the document count and total stored bytes.
func (r *DocumentPostgres) Stats(ctx context.Context) (int, int64, error) {
	var count int
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM documents`).Scan(&count, &total)
	return count, total, err
}
