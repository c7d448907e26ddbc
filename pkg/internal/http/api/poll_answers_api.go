package api

import (
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func answerPoll(c *fiber.Ctx) error {
	pollId := c.Params("pollId")

	var data struct {
		Option string `json:"option" validate:"required"`
		Voter  string `json:"voter" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	poll, err := exts.GetController(c).CastVote(c.UserContext(), services.EncodeToken(pollId, data.Option), data.Voter)
	if err != nil {
		return toHttpError(err)
	}

	return c.JSON(poll)
}
