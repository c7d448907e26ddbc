package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/events"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/metrics"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	finishTriggerManual  = "manual"
	finishTriggerExpired = "expired"
)

type ControllerOptions struct {
	// Defaults fills the config fields a creation request leaves empty.
	Defaults models.PollConfig
	Events   events.Publisher
	Now      func() time.Time
}

// PollController drives polls through pending, active, finished and removed.
type PollController struct {
	store    *PollStore
	gateway  Gateway
	renderer PollRenderer
	events   events.Publisher
	defaults models.PollConfig
	now      func() time.Time
}

func NewPollController(store *PollStore, gateway Gateway, opts ControllerOptions) *PollController {
	now := lo.Ternary(opts.Now != nil, opts.Now, time.Now)
	publisher := opts.Events
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PollController{
		store:    store,
		gateway:  gateway,
		renderer: PollRenderer{Users: gateway, Now: now},
		events:   publisher,
		defaults: opts.Defaults.WithDefaults(),
		now:      now,
	}
}

func (v *PollController) Store() *PollStore {
	return v.store
}

type CreatePollRequest struct {
	Title   string
	Options []PollOptionInput
	Author  string
	Channel string
	Config  models.PollConfig
}

func (v *PollController) resolveConfig(cfg models.PollConfig) models.PollConfig {
	if cfg.Limit == 0 {
		cfg.Limit = v.defaults.Limit
	}
	if cfg.ExpiresIn <= 0 {
		cfg.ExpiresIn = v.defaults.ExpiresIn
	}
	cfg.Multiple = cfg.Multiple || v.defaults.Multiple
	return cfg.WithDefaults()
}

// CreatePoll stores a new poll, posts it and starts its expiry timer.
// The poll only becomes active once the gateway accepted the message; when
// posting fails it stays inactive and unscheduled until the cleanup sweep.
func (v *PollController) CreatePoll(ctx context.Context, req CreatePollRequest) (models.Poll, Message, error) {
	if len(req.Options) < PollMinOptions {
		return models.Poll{}, Message{}, ErrInsufficientOptions
	}

	cfg := v.resolveConfig(req.Config)
	createdAt := v.now()
	poll := models.Poll{
		Title:   req.Title,
		Author:  req.Author,
		Channel: req.Channel,
		Options: lo.Map(req.Options, func(item PollOptionInput, _ int) models.PollOption {
			return models.PollOption{ID: NewID(), Name: item.Name, Subtitle: item.Subtitle}
		}),
		Config:    cfg,
		State:     models.PollStatePending,
		CreatedAt: createdAt,
		ExpiredAt: lo.ToPtr(createdAt.Add(cfg.ExpiresIn)),
	}
	id := v.store.Create("", poll)
	metrics.LivePolls.Set(float64(v.store.Len()))
	poll, _ = v.store.Get(id)

	message := v.renderer.PollMessage(ctx, poll)
	message.Text = TxtCreatingPoll

	ref, err := v.gateway.PostMessage(ctx, poll.Channel, message)
	if err != nil {
		log.Error().Err(err).Str("poll", id).Msg("An error occurred when posting a new poll...")
		return poll, message, wrapGateway("post poll", err)
	}

	poll, err = v.store.update(id, func(record *managedPoll) error {
		activatedAt := v.now()
		record.poll.MessageRef = ref
		record.poll.Active = true
		record.poll.Scheduled = true
		record.poll.State = models.PollStateActive
		record.poll.ExpiredAt = lo.ToPtr(activatedAt.Add(record.poll.Config.ExpiresIn))
		record.timer = time.AfterFunc(record.poll.Config.ExpiresIn, func() {
			v.expire(id, record)
		})
		return nil
	})
	if err != nil {
		return poll, message, fmt.Errorf("unable to activate poll: %w", err)
	}

	log.Info().Str("poll", id).Str("author", poll.Author).Dur("expires_in", cfg.ExpiresIn).Msg("Poll created.")
	metrics.PollsCreated.Inc()
	v.publish(events.PollEvent{
		Type:   events.TypePollCreated,
		PollID: id,
		Actor:  poll.Author,
		Data: map[string]any{
			"title":   poll.Title,
			"channel": poll.Channel,
			"options": len(poll.Options),
		},
	})

	return poll, message, nil
}

// expire finishes the poll when owner is still the record stored under id.
func (v *PollController) expire(id string, owner *managedPoll) {
	log.Debug().Str("poll", id).Msg("Poll expired, finishing...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := v.finish(ctx, id, finishTriggerExpired, owner); err != nil && !errors.Is(err, ErrPollNotFound) {
		log.Error().Err(err).Str("poll", id).Msg("An error occurred when finishing an expired poll...")
	}
}

// FinishPoll ends an active poll, then renders it without vote buttons and
// posts the results. Finishing a poll that is not active does nothing.
func (v *PollController) FinishPoll(ctx context.Context, id string) error {
	return v.finish(ctx, id, finishTriggerManual, nil)
}

// finish closes an active poll. A non-nil owner restricts it to that record,
// so a timer of a replaced poll never finishes its successor.
func (v *PollController) finish(ctx context.Context, id, trigger string, owner *managedPoll) error {
	transitioned := false
	poll, err := v.store.update(id, func(record *managedPoll) error {
		if owner != nil && record != owner {
			return nil
		}
		if record.poll.State != models.PollStateActive {
			return nil
		}
		record.stopTimer()
		record.poll.Active = false
		record.poll.Scheduled = false
		record.poll.State = models.PollStateFinished
		record.poll.ExpiredAt = lo.ToPtr(v.now())
		transitioned = true
		return nil
	})
	if err != nil {
		return err
	}
	if !transitioned {
		return nil
	}

	metrics.PollsFinished.WithLabelValues(trigger).Inc()
	v.publish(events.PollEvent{
		Type:   events.TypePollFinished,
		PollID: id,
		Data: map[string]any{
			"trigger": trigger,
			"total":   CountTotalVotes(poll),
		},
	})

	// The poll is finished either way, a stale poll message is only logged.
	if err := v.gateway.UpdateMessage(ctx, poll.Channel, poll.MessageRef, v.renderer.PollMessage(ctx, poll)); err != nil {
		log.Error().Err(err).Str("poll", id).Msg("An error occurred when rendering a finished poll...")
	}
	if _, err := v.gateway.PostMessage(ctx, poll.Channel, v.renderer.ResultsMessage(ctx, poll)); err != nil {
		log.Error().Err(err).Str("poll", id).Msg("An error occurred when posting poll results...")
		return wrapGateway("post results", err)
	}

	return nil
}

// CastVote records the vote carried by a vote button and re-renders the poll.
func (v *PollController) CastVote(ctx context.Context, token, voter string) (models.Poll, error) {
	target, err := DecodeToken(token)
	if err != nil {
		metrics.VotesRejected.WithLabelValues("malformed").Inc()
		return models.Poll{}, err
	}

	poll, err := v.store.TryVote(target.PollID, target.OptionID, voter)
	if err != nil {
		metrics.VotesRejected.WithLabelValues(lo.Ternary(errors.Is(err, ErrPollNotFound), "not_found", "not_allowed")).Inc()
		return poll, err
	}

	metrics.VotesAccepted.Inc()
	v.publish(events.PollEvent{
		Type:     events.TypePollVoted,
		PollID:   target.PollID,
		OptionID: target.OptionID,
		Actor:    voter,
	})

	// Render whatever the ledger holds now, a concurrent vote may have landed.
	if current, ok := v.store.Get(target.PollID); ok {
		poll = current
	}
	if err := v.gateway.UpdateMessage(ctx, poll.Channel, poll.MessageRef, v.renderer.PollMessage(ctx, poll)); err != nil {
		log.Error().Err(err).Str("poll", poll.ID).Msg("An error occurred when refreshing a poll...")
		return poll, wrapGateway("update poll", err)
	}

	return poll, nil
}

// RequestFinish finishes the poll on behalf of its author.
func (v *PollController) RequestFinish(ctx context.Context, id, requester string) error {
	poll, ok := v.store.Get(id)
	if !ok {
		return ErrPollNotFound
	}
	if poll.Author != requester {
		return ErrPermissionDenied
	}
	if poll.State != models.PollStateActive {
		return ErrPollClosed
	}
	return v.FinishPoll(ctx, id)
}

// RequestRemoval drops the poll and its message on behalf of its author.
func (v *PollController) RequestRemoval(ctx context.Context, id, requester string) error {
	poll, err := v.store.update(id, func(record *managedPoll) error {
		if record.poll.Author != requester {
			return ErrPermissionDenied
		}
		record.stopTimer()
		record.poll.Active = false
		record.poll.Scheduled = false
		record.poll.State = models.PollStateRemoved
		return nil
	})
	if err != nil {
		return err
	}

	v.store.Remove(id)
	metrics.LivePolls.Set(float64(v.store.Len()))
	metrics.PollsRemoved.Inc()
	v.publish(events.PollEvent{
		Type:   events.TypePollRemoved,
		PollID: id,
		Actor:  requester,
	})

	if len(poll.MessageRef) == 0 {
		return nil
	}
	if err := v.gateway.DeleteMessage(ctx, poll.Channel, poll.MessageRef); err != nil {
		log.Error().Err(err).Str("poll", id).Msg("An error occurred when deleting a poll message...")
		return wrapGateway("delete poll", err)
	}
	return nil
}

// GetPollMetric returns a copy of the poll with its ranked results.
func (v *PollController) GetPollMetric(id string) (models.Poll, models.PollMetric, error) {
	poll, ok := v.store.Get(id)
	if !ok {
		return poll, models.PollMetric{}, ErrPollNotFound
	}
	return poll, RankPoll(poll), nil
}

func (v *PollController) publish(event events.PollEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = v.now()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := v.events.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("poll", event.PollID).Str("type", event.Type).Msg("An error occurred when publishing poll event...")
		}
	}()
}
