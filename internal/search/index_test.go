package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperbase/internal/model"
)

func doc(id, filename, text, folder string, uploaded time.Time, size int64, tags ...string) *model.Document {
	d := model.NewDocument(id, filename, "image/png", size, folder, "documents/"+id)
	d.UploadedAt = uploaded
	d.OCRStatus = model.StatusCompleted
	d.OCRText = &text
	engine := "tesseract"
	d.OCREngine = &engine
	for _, name := range tags {
		d.Tags = append(d.Tags, model.Tag{ID: "tag-" + name, Name: name, Color: model.DefaultTagColor})
	}
	return d
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix := NewIndex()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ix.Upsert(doc("d1", "invoice.png", "invoice total 42", "/finance", base, 100, "billing"))
	ix.Upsert(doc("d2", "receipt.png", "receipt total 17", "/finance/2024", base.Add(time.Hour), 200))
	ix.Upsert(doc("d3", "memo.png", "team offsite notes", "/hr", base.Add(2*time.Hour), 300, "people"))
	return ix
}

func TestQuery_TextTokens(t *testing.T) {
	ix := testIndex(t)

	page, err := ix.Query(Query{Text: "total", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = ix.Query(Query{Text: "invoice", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "d1", page.Items[0].ID)

	// All tokens must match.
	page, err = ix.Query(Query{Text: "invoice receipt", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	// Filename matches count too.
	page, err = ix.Query(Query{Text: "memo", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestQuery_Pagination(t *testing.T) {
	ix := testIndex(t)

	p1, err := ix.Query(Query{Text: "total", Page: 1, PageSize: 1, SortBy: SortByUploadDate, SortOrder: SortAsc})
	require.NoError(t, err)
	require.Len(t, p1.Items, 1)
	assert.Equal(t, 2, p1.Total)
	assert.Equal(t, "d1", p1.Items[0].ID)

	p2, err := ix.Query(Query{Text: "total", Page: 2, PageSize: 1, SortBy: SortByUploadDate, SortOrder: SortAsc})
	require.NoError(t, err)
	require.Len(t, p2.Items, 1)
	assert.Equal(t, "d2", p2.Items[0].ID)

	p3, err := ix.Query(Query{Text: "total", Page: 3, PageSize: 1})
	require.NoError(t, err)
	assert.Empty(t, p3.Items)
}

func TestQuery_ValidatesPaging(t *testing.T) {
	ix := testIndex(t)

	_, err := ix.Query(Query{Page: 0, PageSize: 10})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindInvalidInput))

	_, err = ix.Query(Query{Page: 1, PageSize: 0})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindInvalidInput))
}

func TestQuery_FolderFilter(t *testing.T) {
	ix := testIndex(t)

	exact, err := ix.Query(Query{FolderPath: "/finance", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, exact.Total)

	recursive, err := ix.Query(Query{FolderPath: "/finance", Recursive: true, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, recursive.Total)

	root, err := ix.Query(Query{FolderPath: "/", Recursive: true, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, root.Total)
}

func TestQuery_TagAndMimeFilters(t *testing.T) {
	ix := testIndex(t)

	byTag, err := ix.Query(Query{Tags: []string{"billing"}, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, byTag.Total)
	assert.Equal(t, "d1", byTag.Items[0].ID)

	byMime, err := ix.Query(Query{MimeTypes: []string{"application/pdf"}, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, byMime.Total)
}

func TestQuery_DateRange(t *testing.T) {
	ix := testIndex(t)
	from := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 13, 30, 0, 0, time.UTC)

	page, err := ix.Query(Query{DateFrom: &from, DateTo: &to, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "d2", page.Items[0].ID)
}

func TestQuery_SortingAndTiebreak(t *testing.T) {
	ix := NewIndex()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ix.Upsert(doc("b", "same.png", "", "/", ts, 10))
	ix.Upsert(doc("a", "same.png", "", "/", ts, 10))

	page, err := ix.Query(Query{Page: 1, PageSize: 10, SortBy: SortByFilename, SortOrder: SortAsc})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].ID)
	assert.Equal(t, "b", page.Items[1].ID)

	page, err = ix.Query(Query{Page: 1, PageSize: 10, SortBy: SortByFilename, SortOrder: SortDesc})
	require.NoError(t, err)
	assert.Equal(t, "b", page.Items[0].ID)

	bySize, err := ix.Query(Query{Page: 1, PageSize: 10, SortBy: SortBySize, SortOrder: SortAsc})
	require.NoError(t, err)
	assert.Equal(t, "a", bySize.Items[0].ID)
}

func TestUpsertAndRemove(t *testing.T) {
	ix := testIndex(t)
	require.Equal(t, 3, ix.Len())

	// Upsert replaces: last writer wins.
	updated := doc("d1", "invoice.png", "revised total 43", "/finance", time.Now().UTC(), 100)
	ix.Upsert(updated)
	assert.Equal(t, 3, ix.Len())

	page, err := ix.Query(Query{Text: "revised", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	ix.Remove("d1")
	assert.Equal(t, 2, ix.Len())
	ix.Remove("d1") // unknown id is a no-op
	assert.Equal(t, 2, ix.Len())
}

func TestFolders(t *testing.T) {
	ix := testIndex(t)

	folders := ix.Folders()
	byPath := map[string]FolderInfo{}
	for _, f := range folders {
		byPath[f.Path] = f
	}

	assert.Equal(t, 0, byPath["/"].DocumentCount)
	assert.Equal(t, "Root", byPath["/"].Name)
	assert.Equal(t, 1, byPath["/finance"].DocumentCount)
	assert.Equal(t, 1, byPath["/finance/2024"].DocumentCount)
	assert.Equal(t, "2024", byPath["/finance/2024"].Name)
	assert.Equal(t, 1, byPath["/hr"].DocumentCount)
}
