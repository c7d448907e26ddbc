package services

import (
	"fmt"
	"sync"
	"time"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/metrics"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultCleanupSchedule fires at the top of every hour.
const DefaultCleanupSchedule = "0 * * * *"

// pendingGrace keeps a poll that is still being posted out of the sweep.
const pendingGrace = time.Minute

// Trigger is the recurring scheduler, satisfied by *cron.Cron.
type Trigger interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Remove(id cron.EntryID)
}

// PollSweeper evicts polls that are neither live nor waiting for their own
// expiry timer: polls that never got posted and polls already finished.
type PollSweeper struct {
	store   *PollStore
	trigger Trigger
	Now     func() time.Time

	mu      sync.Mutex
	entry   cron.EntryID
	running bool
}

func NewPollSweeper(store *PollStore, trigger Trigger) *PollSweeper {
	return &PollSweeper{store: store, trigger: trigger, Now: time.Now}
}

func (v *PollSweeper) Start(spec string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.running {
		return fmt.Errorf("poll sweeper already started")
	}
	if len(spec) == 0 {
		spec = DefaultCleanupSchedule
	}
	entry, err := v.trigger.AddFunc(spec, func() { v.Sweep() })
	if err != nil {
		return fmt.Errorf("unable to schedule poll cleanup: %v", err)
	}
	v.entry = entry
	v.running = true
	log.Info().Str("schedule", spec).Msg("Poll cleanup scheduled.")
	return nil
}

// Stop cancels the recurring sweep. Polls in the store are left untouched.
func (v *PollSweeper) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.running {
		return
	}
	v.trigger.Remove(v.entry)
	v.running = false
}

// Sweep runs one cleanup pass and returns how many polls were evicted.
func (v *PollSweeper) Sweep() int {
	log.Debug().Msg("Cleaning inactive polls...")

	evicted := 0
	for _, id := range v.store.ListIDs() {
		if v.evict(id) {
			evicted++
		}
	}

	metrics.SweepEvictions.Add(float64(evicted))
	metrics.LivePolls.Set(float64(v.store.Len()))
	log.Debug().Int("evicted", evicted).Msg("Cleaned inactive polls.")
	return evicted
}

func (v *PollSweeper) evict(id string) (evicted bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("poll", id).Any("panic", r).Msg("An error occurred when evicting a poll...")
			evicted = false
		}
	}()
	now := v.Now()
	return v.store.EvictIf(id, func(poll models.Poll) bool {
		if poll.State == models.PollStatePending && now.Sub(poll.CreatedAt) < pendingGrace {
			return false
		}
		return !poll.Active && !poll.Scheduled
	})
}
