package api

import (
	"errors"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func toHttpError(err error) error {
	var gErr *services.GatewayError
	switch {
	case errors.Is(err, services.ErrPollNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrVoteNotAllowed), errors.Is(err, services.ErrPollClosed):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInsufficientOptions), errors.Is(err, services.ErrMalformedToken):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &gErr):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
