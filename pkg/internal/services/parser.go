package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"github.com/samber/lo"
)

const (
	PollKeyword    = "poll"
	PollMinOptions = 2

	// OptionTitleSeparator splits an option into title and subtitle. It is the
	// two characters backslash and n as typed in chat, not a line break.
	OptionTitleSeparator = `\n`
)

type PollOptionInput struct {
	Name     string  `json:"name" validate:"required"`
	Subtitle *string `json:"subtitle"`
}

type PollCommand struct {
	Title   string
	Options []PollOptionInput
	Config  models.PollConfig
}

// ParsePollCommand reads a poll creation command such as
//
//	poll "Lunch?" "Pizza" "Sushi\nNear the office" multiple limit=2 expires=10m
//
// Quoted segments are the title followed by the options. Bare words outside
// quotes tune the poll: multiple, limit=N, expires=<duration> and quick.
func ParsePollCommand(text string) (PollCommand, error) {
	var out PollCommand

	firstQuote := strings.IndexAny(text, `"'`)
	if idx := strings.Index(text, PollKeyword); idx >= 0 && (firstQuote < 0 || idx < firstQuote) {
		text = text[idx+len(PollKeyword):]
	}

	segments, words := splitQuoted(text)
	if len(segments) == 0 || len(segments)-1 < PollMinOptions {
		return out, ErrInsufficientOptions
	}

	out.Title = strings.TrimSpace(segments[0])
	out.Options = ParseOptionTitles(segments[1:])

	for _, word := range words {
		key, value, _ := strings.Cut(strings.ToLower(word), "=")
		switch key {
		case "multiple":
			out.Config.Multiple = true
		case "quick":
			out.Config.ExpiresIn = models.QuickPollExpiresIn
		case "limit":
			limit, err := strconv.Atoi(value)
			if err != nil || limit < models.UnlimitedPollLimit || limit == 0 || limit > models.MaxPollLimit {
				return out, fmt.Errorf("invalid limit %q", value)
			}
			out.Config.Limit = limit
			if limit != 1 {
				out.Config.Multiple = true
			}
		case "expires":
			duration, err := time.ParseDuration(value)
			if err != nil || duration <= 0 {
				return out, fmt.Errorf("invalid expiry %q", value)
			}
			out.Config.ExpiresIn = duration
		}
	}

	return out, nil
}

// ParseOptionTitles splits each raw option on OptionTitleSeparator.
func ParseOptionTitles(raw []string) []PollOptionInput {
	return lo.Map(raw, func(item string, _ int) PollOptionInput {
		name, subtitle, found := strings.Cut(item, OptionTitleSeparator)
		if idx := strings.Index(subtitle, OptionTitleSeparator); idx >= 0 {
			subtitle = subtitle[:idx]
		}
		return PollOptionInput{
			Name:     name,
			Subtitle: lo.Ternary(found && len(subtitle) > 0, lo.ToPtr(subtitle), nil),
		}
	})
}

// splitQuoted returns the content of every single or double quoted segment,
// plus the bare words found between them. A backslash keeps the next
// character inside the segment, except for the title separator which is
// left untouched. An unterminated quote is dropped.
func splitQuoted(text string) (segments []string, words []string) {
	runes := []rune(text)
	var bare strings.Builder
	flushBare := func() {
		words = append(words, strings.Fields(bare.String())...)
		bare.Reset()
	}

	for i := 0; i < len(runes); i++ {
		quote := runes[i]
		if quote != '"' && quote != '\'' {
			bare.WriteRune(quote)
			continue
		}
		flushBare()

		var current strings.Builder
		closed := false
		j := i + 1
		for ; j < len(runes); j++ {
			if runes[j] == '\\' && j+1 < len(runes) {
				if runes[j+1] == 'n' {
					current.WriteString(OptionTitleSeparator)
				} else {
					current.WriteRune(runes[j+1])
				}
				j++
				continue
			}
			if runes[j] == quote {
				closed = true
				break
			}
			current.WriteRune(runes[j])
		}
		if !closed {
			break
		}
		segments = append(segments, current.String())
		i = j
	}
	flushBare()

	return segments, words
}
