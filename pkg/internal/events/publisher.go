package events

import (
	"context"
	"time"
)

const (
	TypePollCreated  = "poll.created"
	TypePollVoted    = "poll.voted"
	TypePollFinished = "poll.finished"
	TypePollRemoved  = "poll.removed"
)

type PollEvent struct {
	Type      string         `json:"type"`
	PollID    string         `json:"poll_id"`
	Actor     string         `json:"actor,omitempty"`
	OptionID  string         `json:"option_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event PollEvent) error
	Close() error
}

// NopPublisher drops every event, used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, PollEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
