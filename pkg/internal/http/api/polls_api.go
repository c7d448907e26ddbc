package api

import (
	"time"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func getPoll(c *fiber.Ctx) error {
	pollId := c.Params("pollId")

	poll, metric, err := exts.GetController(c).GetPollMetric(pollId)
	if err != nil {
		return toHttpError(err)
	}

	return c.JSON(struct {
		models.Poll
		Metric models.PollMetric `json:"metric"`
	}{poll, metric})
}

func createPoll(c *fiber.Ctx) error {
	var data struct {
		Title     string                     `json:"title" validate:"required"`
		Author    string                     `json:"author" validate:"required"`
		Channel   string                     `json:"channel" validate:"required"`
		Options   []services.PollOptionInput `json:"options" validate:"required,min=2,dive"`
		Multiple  bool                       `json:"multiple"`
		Limit     int                        `json:"limit"`
		ExpiredAt *time.Time                 `json:"expired_at"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	cfg := models.PollConfig{Multiple: data.Multiple, Limit: data.Limit}
	if err := exts.ValidateStruct(cfg); err != nil {
		return err
	}
	if data.ExpiredAt != nil {
		cfg.ExpiresIn = time.Until(*data.ExpiredAt)
		if cfg.ExpiresIn <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "poll cannot end in the past")
		}
	}

	poll, _, err := exts.GetController(c).CreatePoll(c.UserContext(), services.CreatePollRequest{
		Title:   data.Title,
		Options: data.Options,
		Author:  data.Author,
		Channel: data.Channel,
		Config:  cfg,
	})
	if err != nil {
		return toHttpError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(poll)
}

func finishPoll(c *fiber.Ctx) error {
	pollId := c.Params("pollId")

	var data struct {
		Requester string `json:"requester" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	controller := exts.GetController(c)
	if err := controller.RequestFinish(c.UserContext(), pollId, data.Requester); err != nil {
		return toHttpError(err)
	}

	poll, metric, err := controller.GetPollMetric(pollId)
	if err != nil {
		return toHttpError(err)
	}

	return c.JSON(struct {
		models.Poll
		Metric models.PollMetric `json:"metric"`
	}{poll, metric})
}

func deletePoll(c *fiber.Ctx) error {
	pollId := c.Params("pollId")

	var data struct {
		Requester string `json:"requester" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	if err := exts.GetController(c).RequestRemoval(c.UserContext(), pollId, data.Requester); err != nil {
		return toHttpError(err)
	}

	return c.SendStatus(fiber.StatusOK)
}
