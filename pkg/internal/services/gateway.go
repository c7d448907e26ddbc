package services

import (
	"context"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"github.com/slack-go/slack"
)

// Message is the content handed to the gateway: a fallback text for
// notifications plus the Block Kit blocks to render.
type Message struct {
	Text   string
	Blocks []slack.Block
}

// Gateway is the chat transport the poll engine talks through.
type Gateway interface {
	PostMessage(ctx context.Context, channel string, content Message) (string, error)
	UpdateMessage(ctx context.Context, channel, ref string, content Message) error
	DeleteMessage(ctx context.Context, channel, ref string) error
	UserDirectory
}

type UserDirectory interface {
	// LookupUser returns nil without error when nobody matches.
	LookupUser(ctx context.Context, fuzzyName string) (*models.ChatUser, error)
}
