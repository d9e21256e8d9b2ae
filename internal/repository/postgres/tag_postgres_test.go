package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"paperbase/internal/model"
)

func TestTagPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTagPostgres(db)
	ctx := context.Background()

	tag := &model.Tag{ID: "tag-1", Name: "invoices", Color: "#808080"}

	mock.ExpectQuery("INSERT INTO tags").
		WithArgs(tag.ID, tag.Name, tag.Color).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color"}).
			AddRow(tag.ID, tag.Name, tag.Color))

	result, err := repo.Create(ctx, tag)

	assert.NoError(t, err)
	assert.Equal(t, "invoices", result.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagPostgres_FindByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTagPostgres(db)
	ctx := context.Background()

	t.Run("found case-insensitively", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM tags WHERE LOWER\\(name\\)").
			WithArgs("Invoices").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color"}).
				AddRow("tag-1", "invoices", "#808080"))

		tag, err := repo.FindByName(ctx, "Invoices")

		assert.NoError(t, err)
		assert.Equal(t, "tag-1", tag.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM tags WHERE LOWER\\(name\\)").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		tag, err := repo.FindByName(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, tag)
	})
}

func TestTagPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTagPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM tags ORDER BY name").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color"}).
			AddRow("tag-1", "invoices", "#808080").
			AddRow("tag-2", "receipts", "#ff0000"))

	tags, err := repo.List(ctx)

	assert.NoError(t, err)
	assert.Len(t, tags, 2)
	assert.Equal(t, "invoices", tags[0].Name)
}

func TestTagPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTagPostgres(db)
	ctx := context.Background()

	t.Run("returns affected document ids", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT document_id FROM document_tags").
			WithArgs("tag-1").
			WillReturnRows(sqlmock.NewRows([]string{"document_id"}).
				AddRow("doc-1").
				AddRow("doc-2"))
		mock.ExpectExec("DELETE FROM tags WHERE id = ?").
			WithArgs("tag-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		docIDs, err := repo.Delete(ctx, "tag-1")

		assert.NoError(t, err)
		assert.Equal(t, []string{"doc-1", "doc-2"}, docIDs)
	})

	t.Run("missing tag", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT document_id FROM document_tags").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"document_id"}))
		mock.ExpectExec("DELETE FROM tags WHERE id = ?").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.Delete(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}
