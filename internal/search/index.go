// Package search maintains a queryable in-memory projection of document
// records. The repository remains the durable store; the index is rebuilt
// from it at startup and kept current through Upsert/Remove.
package search

import (
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"paperbase/internal/model"
)

// SortField selects the ordering key for query results.
type SortField string

const (
	SortByUploadDate SortField = "upload_date"
	SortByFilename   SortField = "filename"
	SortBySize       SortField = "size"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Query filters and pages the document projection. Zero values mean "no
// filter"; Page and PageSize are 1-indexed and must be positive.
type Query struct {
	Text       string
	Tags       []string
	FolderPath string
	// Recursive widens the folder filter to all sub-folders.
	Recursive bool
	MimeTypes []string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    SortField
	SortOrder SortOrder
}

// Page is one ordered page of results plus the total match count.
type Page struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// FolderInfo is a live aggregate over the folder paths present in the index.
type FolderInfo struct {
	Path          string `json:"path"`
	Name          string `json:"name"`
	DocumentCount int    `json:"document_count"`
}

// Index is a thread-safe document projection supporting filtered queries.
type Index struct {
	mu   sync.RWMutex
	docs map[string]model.Document
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{docs: make(map[string]model.Document)}
}

// Upsert stores or replaces the projection of doc. Last writer wins.
func (ix *Index) Upsert(doc *model.Document) {
	ix.mu.Lock()
	ix.docs[doc.ID] = *doc
	ix.mu.Unlock()
}

// Remove drops the document from the projection. Removing an unknown id is a
// no-op.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	delete(ix.docs, id)
	ix.mu.Unlock()
}

// TaggedWith returns the ids of indexed documents carrying the tag id.
func (ix *Index) TaggedWith(tagID string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var ids []string
	for id, doc := range ix.docs {
		if doc.HasTag(tagID) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len reports the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Query returns the matching page and total count. Matching is a
// superset-safe filter: every document whose text or filename contains all
// query tokens appears.
func (ix *Index) Query(q Query) (*Page, error) {
	if q.Page < 1 || q.PageSize < 1 {
		return nil, model.E(model.KindInvalidInput, "page and page_size must be positive (got %d, %d)", q.Page, q.PageSize)
	}

	tokens := strings.Fields(strings.ToLower(q.Text))
	tagSet := toSet(q.Tags)
	mimeSet := toSet(q.MimeTypes)
	folder := ""
	if q.FolderPath != "" {
		folder = model.NormalizeFolderPath(q.FolderPath)
	}

	ix.mu.RLock()
	matched := make([]model.Document, 0, len(ix.docs))
	for _, doc := range ix.docs {
		if !matchTokens(&doc, tokens) {
			continue
		}
		if len(tagSet) > 0 && !matchAnyTag(&doc, tagSet) {
			continue
		}
		if folder != "" && !matchFolder(doc.FolderPath, folder, q.Recursive) {
			continue
		}
		if len(mimeSet) > 0 {
			if _, ok := mimeSet[doc.MimeType]; !ok {
				continue
			}
		}
		if q.DateFrom != nil && doc.UploadedAt.Before(*q.DateFrom) {
			continue
		}
		if q.DateTo != nil && doc.UploadedAt.After(*q.DateTo) {
			continue
		}
		matched = append(matched, doc)
	}
	ix.mu.RUnlock()

	sortDocuments(matched, q.SortBy, q.SortOrder)

	total := len(matched)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	return &Page{Items: matched[start:end], Total: total}, nil
}

// Folders lists every folder implied by the indexed documents, including
// intermediate path components, with exact-match document counts.
func (ix *Index) Folders() []FolderInfo {
	ix.mu.RLock()
	counts := map[string]int{"/": 0}
	for _, doc := range ix.docs {
		counts[doc.FolderPath]++
		// Register parents so empty intermediate folders still appear.
		for p := path.Dir(doc.FolderPath); ; p = path.Dir(p) {
			if _, seen := counts[p]; !seen {
				counts[p] = 0
			}
			if p == "/" {
				break
			}
		}
	}
	ix.mu.RUnlock()

	paths := make([]string, 0, len(counts))
	for p := range counts {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]FolderInfo, 0, len(paths))
	for _, p := range paths {
		name := path.Base(p)
		if p == "/" {
			name = "Root"
		}
		out = append(out, FolderInfo{Path: p, Name: name, DocumentCount: counts[p]})
	}
	return out
}

func toSet(vals []string) map[string]struct{} {
	if len(vals) == 0 {
		return nil
	}
	s := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

func matchTokens(doc *model.Document, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	haystack := strings.ToLower(doc.Filename)
	if doc.OCRText != nil {
		haystack += " " + strings.ToLower(*doc.OCRText)
	}
	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}

func matchAnyTag(doc *model.Document, tagSet map[string]struct{}) bool {
	for _, t := range doc.Tags {
		if _, ok := tagSet[t.Name]; ok {
			return true
		}
	}
	return false
}

func matchFolder(docPath, filter string, recursive bool) bool {
	if docPath == filter {
		return true
	}
	if !recursive {
		return false
	}
	if filter == "/" {
		return true
	}
	return strings.HasPrefix(docPath, filter+"/")
}

func sortDocuments(docs []model.Document, by SortField, order SortOrder) {
	desc := order == SortDesc
	less := func(a, b *model.Document) bool {
		switch by {
		case SortByFilename:
			if a.Filename != b.Filename {
				return a.Filename < b.Filename
			}
		case SortBySize:
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		default: // upload date
			if !a.UploadedAt.Equal(b.UploadedAt) {
				return a.UploadedAt.Before(b.UploadedAt)
			}
		}
		// Ties broken by id for determinism.
		return a.ID < b.ID
	}
	sort.Slice(docs, func(i, j int) bool {
		if desc {
			return less(&docs[j], &docs[i])
		}
		return less(&docs[i], &docs[j])
	})
}
