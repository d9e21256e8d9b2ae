package handler

import (
	"github.com/gofiber/fiber/v2"
)

type tagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func registerTagRoutes(app *fiber.App, deps Deps) {
	app.Post("/tags", func(c *fiber.Ctx) error {
		var req tagRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		tag, err := deps.Tags.Create(c.UserContext(), req.Name, req.Color)
		if err != nil {
			return writeKindError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tag)
	})

	app.Get("/tags", func(c *fiber.Ctx) error {
		tags, err := deps.Tags.List(c.UserContext())
		if err != nil {
			return writeKindError(c, err)
		}
		return c.JSON(fiber.Map{"tags": tags})
	})

	app.Get("/tags/:id", func(c *fiber.Ctx) error {
		tag, err := deps.Tags.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeKindError(c, err)
		}
		return c.JSON(tag)
	})

	app.Put("/tags/:id", func(c *fiber.Ctx) error {
		var req tagRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		tag, err := deps.Tags.Update(c.UserContext(), c.Params("id"), req.Name, req.Color)
		if err != nil {
			return writeKindError(c, err)
		}
		return c.JSON(tag)
	})

	app.Delete("/tags/:id", func(c *fiber.Ctx) error {
		if err := deps.Tags.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeKindError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
