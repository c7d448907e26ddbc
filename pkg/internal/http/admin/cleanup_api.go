package admin

import (
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

func adminTriggerCleanup(c *fiber.Ctx) error {
	evicted := exts.GetSweeper(c).Sweep()

	return c.JSON(fiber.Map{
		"evicted": evicted,
	})
}

func adminListPolls(c *fiber.Ctx) error {
	store := exts.GetController(c).Store()

	polls := lo.FilterMap(store.ListIDs(), func(id string, _ int) (models.Poll, bool) {
		return store.Get(id)
	})

	return c.JSON(fiber.Map{
		"count": len(polls),
		"data":  polls,
	})
}
