package handler

import (
	"github.com/gofiber/fiber/v2"
)

func registerSystemRoutes(app *fiber.App, deps Deps) {
	app.Get("/system/storage", func(c *fiber.Ctx) error {
		info, err := deps.Docs.StorageInfo(c.UserContext())
		if err != nil {
			return writeKindError(c, err)
		}
		return c.JSON(info)
	})

	app.Get("/system/ocr-engines", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"engines": deps.Engines.List(),
			"default": deps.Engines.DefaultID(),
		})
	})
}
