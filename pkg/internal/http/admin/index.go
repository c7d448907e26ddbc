package admin

import "github.com/gofiber/fiber/v2"

func MapControllers(app *fiber.App, baseURL string, guard fiber.Handler) {
	admin := app.Group(baseURL, guard)
	{
		admin.Post("/cleanup", adminTriggerCleanup)
		admin.Get("/polls", adminListPolls)
	}
}
