package mock

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewFiberApp builds the mock API on fiber.
func NewFiberApp(svc *Service) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/hello", func(c *fiber.Ctx) error {
		return c.JSON(svc.Hello())
	})
	api.Get("/users", func(c *fiber.Ctx) error {
		return c.JSON(svc.Users())
	})
	api.Post("/users", func(c *fiber.Ctx) error {
		var req CreateUserRequest
		if err := decodeBody(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(badRequest(err))
		}
		return c.Status(fiber.StatusCreated).JSON(svc.CreateUser(req))
	})
	api.Get("/trees", func(c *fiber.Ctx) error {
		return c.JSON(svc.Trees())
	})
	api.Post("/trees", func(c *fiber.Ctx) error {
		var req CreateTreeRequest
		if err := decodeBody(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(badRequest(err))
		}
		return c.Status(fiber.StatusCreated).JSON(svc.CreateTree(req))
	})
	api.Get("/trees/:id", func(c *fiber.Ctx) error {
		return c.JSON(svc.Tree(c.Params("id")))
	})
	return app
}
