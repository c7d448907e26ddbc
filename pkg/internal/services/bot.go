package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

const DefaultFallbackChannel = "random"

type ChatCommand struct {
	Text    string
	User    string
	Channel string
}

type ChatAction struct {
	ActionID string
	Value    string
	User     string
	Channel  string
}

// PollBot turns chat events into controller calls. Every handled event ends
// in exactly one message to the chat: the poll itself, its results, or a notice.
type PollBot struct {
	controller      *PollController
	gateway         Gateway
	fallbackChannel string
}

func NewPollBot(controller *PollController, gateway Gateway, fallbackChannel string) *PollBot {
	if len(fallbackChannel) == 0 {
		fallbackChannel = DefaultFallbackChannel
	}
	return &PollBot{
		controller:      controller,
		gateway:         gateway,
		fallbackChannel: fallbackChannel,
	}
}

func (v *PollBot) Controller() *PollController {
	return v.controller
}

func (v *PollBot) notify(ctx context.Context, channel, text string) {
	if len(channel) == 0 {
		channel = v.fallbackChannel
	}
	if _, err := v.gateway.PostMessage(ctx, channel, Message{Text: text}); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("An error occurred when sending poll notice...")
	}
}

// HandleCommand creates a poll from a chat command.
func (v *PollBot) HandleCommand(ctx context.Context, cmd ChatCommand) error {
	parsed, err := ParsePollCommand(cmd.Text)
	if err != nil {
		if errors.Is(err, ErrInsufficientOptions) {
			v.notify(ctx, cmd.Channel, TxtPollMinOptions)
		} else {
			v.notify(ctx, cmd.Channel, TxtPollInvalidCommand)
		}
		return err
	}

	author := cmd.User
	if user, err := v.gateway.LookupUser(ctx, cmd.User); err != nil {
		log.Warn().Err(err).Str("user", cmd.User).Msg("An error occurred when looking up poll author...")
	} else if user != nil {
		author = user.Name
	}

	_, _, err = v.controller.CreatePoll(ctx, CreatePollRequest{
		Title:   parsed.Title,
		Options: parsed.Options,
		Author:  author,
		Channel: cmd.Channel,
		Config:  parsed.Config,
	})
	if err != nil {
		v.notifyError(ctx, cmd.Channel, err, TxtPollInvalidCommand)
	}
	return err
}

// HandleAction dispatches a button press by its action id.
func (v *PollBot) HandleAction(ctx context.Context, action ChatAction) error {
	switch action.ActionID {
	case ActionPollChoice:
		return v.HandleVote(ctx, action.Value, action.User, action.Channel)
	case ActionFinishPoll:
		return v.HandleFinish(ctx, action.Value, action.User, action.Channel)
	case ActionRemovePoll:
		return v.HandleRemove(ctx, action.Value, action.User, action.Channel)
	default:
		log.Warn().Str("action", action.ActionID).Msg("Received an unknown poll action.")
		v.notify(ctx, action.Channel, TxtUnknownAction)
		return ErrUnknownAction
	}
}

func (v *PollBot) HandleVote(ctx context.Context, token, voter, channel string) error {
	_, err := v.controller.CastVote(ctx, token, voter)
	if err != nil {
		v.notifyError(ctx, channel, err, TxtVoteError)
		return err
	}
	v.notify(ctx, channel, TxtVoteSuccessful)
	return nil
}

// HandleFinish answers with the results message on success.
func (v *PollBot) HandleFinish(ctx context.Context, pollId, requester, channel string) error {
	err := v.controller.RequestFinish(ctx, pollId, requester)
	if err != nil {
		v.notifyError(ctx, channel, err, TxtFinishNoPermission)
	}
	return err
}

func (v *PollBot) HandleRemove(ctx context.Context, pollId, requester, channel string) error {
	err := v.controller.RequestRemoval(ctx, pollId, requester)
	if err != nil {
		v.notifyError(ctx, channel, err, TxtRemoveNoPermission)
		return err
	}
	v.notify(ctx, channel, TxtPollRemoved)
	return nil
}

// notifyError picks the notice for a failed operation. denied is the text
// used for a permission error, which differs between finish and remove.
func (v *PollBot) notifyError(ctx context.Context, channel string, err error, denied string) {
	var gErr *GatewayError
	switch {
	case errors.Is(err, ErrInsufficientOptions):
		v.notify(ctx, channel, TxtPollMinOptions)
	case errors.Is(err, ErrMalformedToken):
		v.notify(ctx, channel, TxtVoteError)
	case errors.Is(err, ErrPollNotFound):
		v.notify(ctx, channel, TxtPollNotFound)
	case errors.Is(err, ErrVoteNotAllowed):
		v.notify(ctx, channel, TxtVoteCant)
	case errors.Is(err, ErrPollClosed):
		v.notify(ctx, channel, TxtPollFinished)
	case errors.Is(err, ErrPermissionDenied):
		v.notify(ctx, channel, denied)
	case errors.As(err, &gErr):
		v.notify(ctx, channel, TxtGenericFailure)
	default:
		log.Error().Err(err).Msg("An error occurred when handling poll event...")
		v.notify(ctx, channel, TxtGenericFailure)
	}
}
