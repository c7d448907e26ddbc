package services

import (
	"context"
	"fmt"
	"time"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/slack-go/slack"
)

const (
	ActionPollChoice = "poll_choice"
	ActionRemovePoll = "remove_poll"
	ActionFinishPoll = "finish_poll"
)

const (
	TxtVoteButton         = "Vote"
	TxtPollBy             = "Poll by"
	TxtPollResults        = "Poll results"
	TxtPollCloses         = "Closes"
	TxtFinishPollButton   = "Finish"
	TxtRemovePollButton   = "Remove"
	TxtPercentageSymbol   = "%"
	TxtMostVotedOption    = ":star:"
	TxtVoterPlural        = "Voters"
	TxtVoterNone          = "No votes"
	TxtVoterSingular      = "Voter"
	TxtCreatingPoll       = "*Creating poll*. If you see this message for more than 2 seconds something might have gone wrong. Please stand by..."
	TxtFinishPollStandby  = "*Poll:* Fetching poll results. If you see this message for more than 2 seconds something might have gone wrong. Please stand by..."
	TxtUpdatingPoll       = "*Poll*: Updating voting results..."
	TxtPollFinished       = "*Poll:* This poll has ended."
	TxtPollMinOptions     = "*New poll*: You must have at least 2 options to create a new poll."
	TxtPollInvalidCommand = "*New poll*: Unable to read the poll settings."
	TxtVoteSuccessful     = "*Poll:* Vote successful"
	TxtVoteError          = "*Poll:* An error occurred while voting. Please try again."
	TxtVoteCant           = "*Poll:* The user can't vote or has reached its voting limit in this poll."
	TxtPollNotFound       = "*Poll*: Unable to find the selected poll."
	TxtFinishNoPermission = "*Poll:* Only the poll author can finish it."
	TxtRemoveNoPermission = "*Poll*: Only the author can remove it."
	TxtPollRemoved        = "*Poll:* Poll deleted successfully."
	TxtGenericFailure     = "*Poll:* Something went wrong while talking to the chat service. Please try again."
	TxtUnknownAction      = "*Poll:* This action is not supported."
)

// Slack refuses context blocks with more than ten elements,
// one of them is always the voter count.
const maxVoterAvatars = 9

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

type PollRenderer struct {
	Users UserDirectory
	Now   func() time.Time
}

func (v PollRenderer) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func (v PollRenderer) header(poll models.Poll) string {
	return fmt.Sprintf("*%s* %s @%s", poll.Title, TxtPollBy, poll.Author)
}

// PollMessage renders the poll with one vote button per option, or without
// buttons once the poll is finished.
func (v PollRenderer) PollMessage(ctx context.Context, poll models.Poll) Message {
	finished := poll.Finished()

	out := []slack.Block{slack.NewSectionBlock(markdown(v.header(poll)), nil, nil)}
	if !finished && poll.ExpiredAt != nil {
		closes := humanize.RelTime(*poll.ExpiredAt, v.now(), "ago", "from now")
		out = append(out, slack.NewContextBlock("", markdown(fmt.Sprintf("%s %s", TxtPollCloses, closes))))
	}
	out = append(out, slack.NewDividerBlock())
	for _, option := range poll.Options {
		out = append(out, v.OptionBlock(poll, option, finished))
		out = append(out, v.OptionContext(ctx, VotersOf(poll, option.ID)))
	}
	out = append(out, slack.NewDividerBlock(), v.pollActions(poll.ID, finished), slack.NewDividerBlock())

	return Message{
		Text:   lo.Ternary(finished, TxtPollFinished, TxtUpdatingPoll),
		Blocks: out,
	}
}

// ResultsMessage renders the ranked summary posted when a poll ends.
func (v PollRenderer) ResultsMessage(ctx context.Context, poll models.Poll) Message {
	out := []slack.Block{
		slack.NewDividerBlock(),
		slack.NewSectionBlock(markdown(fmt.Sprintf("*%s:* %s", TxtPollResults, v.header(poll))), nil, nil),
		slack.NewDividerBlock(),
	}

	metric := RankPoll(poll)
	for _, result := range metric.Results {
		label := humanize.FtoaWithDigits(result.Percentage, 2) + TxtPercentageSymbol
		if result.MostVoted {
			label += fmt.Sprintf(" - *%s*", TxtMostVotedOption)
		}
		out = append(out,
			slack.NewSectionBlock(markdown(label), nil, nil),
			v.OptionBlock(poll, result.Option, true),
			v.OptionContext(ctx, result.Voters),
			slack.NewDividerBlock(),
		)
	}

	return Message{Text: TxtFinishPollStandby, Blocks: out}
}

func (v PollRenderer) OptionBlock(poll models.Poll, option models.PollOption, finished bool) *slack.SectionBlock {
	text := fmt.Sprintf("*%s*", option.Name)
	if option.Subtitle != nil {
		text += "\n" + *option.Subtitle
	}
	var accessory *slack.Accessory
	if !finished {
		accessory = slack.NewAccessory(
			slack.NewButtonBlockElement(ActionPollChoice, EncodeToken(poll.ID, option.ID), plain(TxtVoteButton)),
		)
	}
	return slack.NewSectionBlock(markdown(text), nil, accessory)
}

// OptionContext renders the avatars of the voters followed by their count.
func (v PollRenderer) OptionContext(ctx context.Context, voters []string) *slack.ContextBlock {
	var elements []slack.MixedElement
	for _, voter := range lo.Slice(voters, 0, maxVoterAvatars) {
		elements = append(elements, v.voterElement(ctx, voter))
	}

	count := len(voters)
	switch {
	case count == 0:
		elements = append(elements, markdown(TxtVoterNone))
	case count == 1:
		elements = append(elements, plain(fmt.Sprintf("%d %s", count, TxtVoterSingular)))
	default:
		elements = append(elements, plain(fmt.Sprintf("%d %s", count, TxtVoterPlural)))
	}

	return slack.NewContextBlock("", elements...)
}

func (v PollRenderer) voterElement(ctx context.Context, voter string) slack.MixedElement {
	if v.Users != nil {
		user, err := v.Users.LookupUser(ctx, voter)
		if err != nil {
			log.Warn().Err(err).Str("voter", voter).Msg("An error occurred when looking up voter...")
		} else if user != nil && len(user.Avatar) > 0 {
			return slack.NewImageBlockElement(user.Avatar, user.Name)
		}
	}
	return markdown("@" + voter)
}

func (v PollRenderer) pollActions(pollId string, finished bool) slack.Block {
	if finished {
		return slack.NewSectionBlock(markdown(TxtPollFinished), nil, nil)
	}
	return slack.NewActionBlock(
		"pollActions-"+pollId,
		slack.NewButtonBlockElement(ActionFinishPoll, pollId, plain(TxtFinishPollButton)).WithStyle(slack.StylePrimary),
		slack.NewButtonBlockElement(ActionRemovePoll, pollId, plain(TxtRemovePollButton)).WithStyle(slack.StyleDanger),
	)
}
