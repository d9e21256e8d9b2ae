package handler

import (
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"paperbase/internal/service"
)

func registerDocumentRoutes(app *fiber.App, deps Deps) {
	// Upload endpoint (multipart/form-data, field name: file). Optional form
	// fields: tags (comma-separated names), folder_path, ocr_engine.
	app.Post("/documents", func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		opts := service.UploadOptions{
			FolderPath: c.FormValue("folder_path"),
			EngineID:   c.FormValue("ocr_engine"),
			TagNames:   splitTags(c.FormValue("tags")),
		}

		outcome, err := deps.Ingest.Upload(c.UserContext(), data, ct, fh.Filename, opts)
		if err != nil {
			return writeKindError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(outcome)
	})

	// List documents with limit & offset, optionally filtered to one folder.
	app.Get("/documents", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := deps.Docs.List(c.UserContext(), limit, offset, c.Query("folder"))
		if err != nil {
			return writeKindError(c, err)
		}
		return c.JSON(res)
	})

	app.Get("/documents/:id", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := deps.Docs.Get(c.UserContext(), id)
		if err != nil {
			return writeKindError(c, err)
		}
		return c.JSON(doc)
	})

	app.Delete("/documents/:id", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := deps.Docs.Delete(c.UserContext(), id); err != nil {
			return writeKindError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/documents/:id/original", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, info, doc, err := deps.Docs.OpenOriginal(c.UserContext(), id)
		if err != nil {
			return writeKindError(c, err)
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+doc.Filename+`"`)
		return c.SendStream(rc, int(info.Size))
	})

	app.Get("/documents/:id/thumbnail", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, info, _, err := deps.Docs.OpenThumbnail(c.UserContext(), id)
		if err != nil {
			return writeKindError(c, err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.SendStream(rc, int(info.Size))
	})

	// Reprocess is accepted immediately; recognition runs in the background.
	app.Post("/documents/:id/reprocess", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := deps.Ingest.Reprocess(c.UserContext(), id, c.Query("ocr_engine"))
		if err != nil {
			return writeKindError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status":   "accepted",
			"document": doc,
		})
	})

	app.Post("/documents/:id/tags/:tagID", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := deps.Docs.AddTag(c.UserContext(), id, c.Params("tagID"))
		if err != nil {
			return writeKindError(c, err)
		}
		return c.JSON(doc)
	})

	app.Delete("/documents/:id/tags/:tagID", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := deps.Docs.RemoveTag(c.UserContext(), id, c.Params("tagID"))
		if err != nil {
			return writeKindError(c, err)
		}
		return c.JSON(doc)
	})
}

func parseID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	_, err := uuid.Parse(id)
	return id, err == nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
