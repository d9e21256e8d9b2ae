package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"paperbase/internal/search"
)

// advancedSearchRequest is the JSON body for POST /search/advanced.
type advancedSearchRequest struct {
	Text       string   `json:"text"`
	Tags       []string `json:"tags"`
	FolderPath string   `json:"folder_path"`
	Recursive  bool     `json:"recursive"`
	MimeTypes  []string `json:"mime_types"`
	DateFrom   string   `json:"date_from"`
	DateTo     string   `json:"date_to"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	SortBy     string   `json:"sort_by"`
	SortOrder  string   `json:"sort_order"`
}

func registerSearchRoutes(app *fiber.App, deps Deps) {
	// Quick search over filename and recognized text.
	app.Get("/search", func(c *fiber.Ctx) error {
		q := search.Query{
			Text:       c.Query("q"),
			FolderPath: c.Query("folder"),
			Recursive:  c.QueryBool("recursive"),
			Page:       1,
			PageSize:   20,
			SortBy:     search.SortField(c.Query("sort_by", string(search.SortByUploadDate))),
			SortOrder:  search.SortOrder(c.Query("sort_order", string(search.SortDesc))),
		}
		if tags := c.Query("tags"); tags != "" {
			q.Tags = splitTags(tags)
		}
		if mimes := c.Query("mime_types"); mimes != "" {
			q.MimeTypes = splitTags(mimes)
		}
		var err error
		if raw := c.Query("page"); raw != "" {
			if q.Page, err = strconv.Atoi(raw); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
			}
		}
		if raw := c.Query("page_size"); raw != "" {
			if q.PageSize, err = strconv.Atoi(raw); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_SIZE", "invalid page_size")
			}
		}
		if q.DateFrom, err = parseDate(c.Query("date_from")); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "invalid date_from")
		}
		if q.DateTo, err = parseDate(c.Query("date_to")); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "invalid date_to")
		}

		page, err := deps.Index.Query(q)
		if err != nil {
			return writeKindError(c, err)
		}
		return c.JSON(page)
	})

	// Advanced search takes the full filter set as a JSON body.
	app.Post("/search/advanced", func(c *fiber.Ctx) error {
		var req advancedSearchRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if req.Page == 0 {
			req.Page = 1
		}
		if req.PageSize == 0 {
			req.PageSize = 20
		}

		q := search.Query{
			Text:       req.Text,
			Tags:       req.Tags,
			FolderPath: req.FolderPath,
			Recursive:  req.Recursive,
			MimeTypes:  req.MimeTypes,
			Page:       req.Page,
			PageSize:   req.PageSize,
			SortBy:     search.SortField(req.SortBy),
			SortOrder:  search.SortOrder(req.SortOrder),
		}
		if q.SortBy == "" {
			q.SortBy = search.SortByUploadDate
		}
		if q.SortOrder == "" {
			q.SortOrder = search.SortDesc
		}
		var err error
		if q.DateFrom, err = parseDate(req.DateFrom); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "invalid date_from")
		}
		if q.DateTo, err = parseDate(req.DateTo); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "invalid date_to")
		}

		page, err := deps.Index.Query(q)
		if err != nil {
			return writeKindError(c, err)
		}
		return c.JSON(page)
	})

	// Folder tree derived from indexed documents.
	app.Get("/folders", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"folders": deps.Index.Folders()})
	})

	// Documents within one folder path.
	app.Get("/folders/*", func(c *fiber.Ctx) error {
		folder := "/" + strings.TrimPrefix(c.Params("*"), "/")
		limit, err := strconv.Atoi(c.Query("limit", "50"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := deps.Docs.List(c.UserContext(), limit, offset, folder)
		if err != nil {
			return writeKindError(c, err)
		}
		return c.JSON(res)
	})
}

// parseDate accepts RFC 3339 timestamps or bare dates; empty input means no bound.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
