package api

import (
	"context"
	"time"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/slack-go/slack"
)

// Slack expects an answer within three seconds, the work itself happens in
// the background and reports back through the chat.
const slackHandlingTimeout = 30 * time.Second

func runInBackground(fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), slackHandlingTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func handleSlackCommand(c *fiber.Ctx) error {
	req, err := adaptor.ConvertRequest(c, false)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	command, err := slack.SlashCommandParse(req)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if len(command.Text) == 0 || len(command.UserName) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "command text and user name are required")
	}

	bot := exts.GetBot(c)
	runInBackground(func(ctx context.Context) {
		err := bot.HandleCommand(ctx, services.ChatCommand{
			Text:    command.Text,
			User:    command.UserName,
			Channel: command.ChannelID,
		})
		if err != nil {
			log.Debug().Err(err).Str("user", command.UserName).Msg("Poll command was not completed.")
		}
	})

	return c.SendStatus(fiber.StatusOK)
}

func handleSlackActions(c *fiber.Ctx) error {
	raw := c.FormValue("payload")
	if len(raw) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "missing payload")
	}

	var callback slack.InteractionCallback
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(raw, &callback); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	user := lo.Ternary(len(callback.User.Name) > 0, callback.User.Name, callback.User.ID)
	actions := lo.Map(callback.ActionCallback.BlockActions, func(item *slack.BlockAction, _ int) services.ChatAction {
		return services.ChatAction{
			ActionID: item.ActionID,
			Value:    item.Value,
			User:     user,
			Channel:  callback.Channel.ID,
		}
	})

	bot := exts.GetBot(c)
	runInBackground(func(ctx context.Context) {
		for _, action := range actions {
			if err := bot.HandleAction(ctx, action); err != nil {
				log.Debug().Err(err).Str("action", action.ActionID).Msg("Poll action was not completed.")
			}
		}
	})

	return c.SendStatus(fiber.StatusOK)
}
