package exts

import (
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	localsBot     = "bot"
	localsSweeper = "sweeper"
)

// ProvideServices makes the poll bot and the sweeper reachable from handlers.
func ProvideServices(bot *services.PollBot, sweeper *services.PollSweeper) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localsBot, bot)
		c.Locals(localsSweeper, sweeper)
		return c.Next()
	}
}

func GetBot(c *fiber.Ctx) *services.PollBot {
	return c.Locals(localsBot).(*services.PollBot)
}

func GetController(c *fiber.Ctx) *services.PollController {
	return GetBot(c).Controller()
}

func GetSweeper(c *fiber.Ctx) *services.PollSweeper {
	return c.Locals(localsSweeper).(*services.PollSweeper)
}
