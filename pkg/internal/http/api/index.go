package api

import (
	"github.com/gofiber/fiber/v2"
)

func MapControllers(app *fiber.App, baseURL string, slackGuard fiber.Handler) {
	api := app.Group(baseURL)
	{
		slack := api.Group("/slack", slackGuard)
		{
			slack.Post("/commands", handleSlackCommand)
			slack.Post("/actions", handleSlackActions)
		}

		polls := api.Group("/polls")
		{
			polls.Post("/", createPoll)
			polls.Get("/:pollId", getPoll)
			polls.Post("/:pollId/finish", finishPoll)
			polls.Delete("/:pollId", deletePoll)
			polls.Post("/:pollId/votes", answerPoll)
		}
	}
}
