package services

import (
	"fmt"
	"sync"
	"time"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"github.com/samber/lo"
)

type managedPoll struct {
	mu     sync.Mutex
	poll   models.Poll
	ledger *VoteLedger
	timer  *time.Timer
}

// snapshot must be called with the record locked.
func (v *managedPoll) snapshot() models.Poll {
	out := v.poll
	out.Options = append([]models.PollOption(nil), v.poll.Options...)
	out.Voters = v.ledger.Snapshot()
	return out
}

// stopTimer must be called with the record locked.
func (v *managedPoll) stopTimer() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

// PollStore owns every poll of the process. Records are guarded one by one,
// the map itself by its own lock, so a slow poll never blocks the others.
type PollStore struct {
	mu    sync.RWMutex
	polls map[string]*managedPoll
}

func NewPollStore() *PollStore {
	return &PollStore{polls: make(map[string]*managedPoll)}
}

// Create inserts a poll and returns its id, generating one when id is empty.
// An existing poll with the same id is replaced and its expiry timer stopped.
func (s *PollStore) Create(id string, initial models.Poll) string {
	if len(id) == 0 {
		id = NewID()
	}
	initial.ID = id
	ledger := NewVoteLedger()
	for _, voter := range initial.Voters {
		for _, option := range voter.Options {
			ledger.Apply(voter.Name, option)
		}
	}
	initial.Voters = nil

	s.mu.Lock()
	previous := s.polls[id]
	s.polls[id] = &managedPoll{poll: initial, ledger: ledger}
	s.mu.Unlock()

	if previous != nil {
		previous.mu.Lock()
		previous.stopTimer()
		previous.mu.Unlock()
	}
	return id
}

func (s *PollStore) lookup(id string) (*managedPoll, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.polls[id]
	return record, ok
}

func (s *PollStore) Get(id string) (models.Poll, bool) {
	record, ok := s.lookup(id)
	if !ok {
		return models.Poll{}, false
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	return record.snapshot(), true
}

func (s *PollStore) Remove(id string) bool {
	s.mu.Lock()
	record, ok := s.polls[id]
	delete(s.polls, id)
	s.mu.Unlock()
	if !ok {
		return false
	}

	record.mu.Lock()
	record.stopTimer()
	record.mu.Unlock()
	return true
}

func (s *PollStore) ListIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Keys(s.polls)
}

func (s *PollStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.polls)
}

// CanVote reports whether voter may pick option in the poll.
// Unknown polls and options never accept votes.
func (s *PollStore) CanVote(pollId, optionId, voter string) bool {
	record, ok := s.lookup(pollId)
	if !ok {
		return false
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	if !record.poll.HasOption(optionId) {
		return false
	}
	return record.ledger.CanVote(record.poll.Config, voter, optionId)
}

// ApplyVote records the vote without checking the voting rules.
// It returns false when the poll or the option does not exist.
func (s *PollStore) ApplyVote(pollId, optionId, voter string) bool {
	record, ok := s.lookup(pollId)
	if !ok {
		return false
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	if !record.poll.HasOption(optionId) {
		return false
	}
	record.ledger.Apply(voter, optionId)
	return true
}

func (s *PollStore) VotersForOption(pollId, optionId string) []string {
	record, ok := s.lookup(pollId)
	if !ok {
		return nil
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	return record.ledger.VotersFor(optionId)
}

// TryVote checks and records a vote in one step under the poll lock,
// returning the poll as it is right after the vote.
func (s *PollStore) TryVote(pollId, optionId, voter string) (models.Poll, error) {
	record, ok := s.lookup(pollId)
	if !ok {
		return models.Poll{}, ErrPollNotFound
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	if !record.poll.Active {
		return record.snapshot(), fmt.Errorf("%w: %w", ErrVoteNotAllowed, ErrPollClosed)
	}
	if !record.poll.HasOption(optionId) {
		return record.snapshot(), fmt.Errorf("%w: unknown option", ErrVoteNotAllowed)
	}
	if !record.ledger.CanVote(record.poll.Config, voter, optionId) {
		return record.snapshot(), fmt.Errorf("%w: limit reached or already voted", ErrVoteNotAllowed)
	}
	record.ledger.Apply(voter, optionId)
	return record.snapshot(), nil
}

// update runs fn with the record locked and returns the resulting copy.
func (s *PollStore) update(id string, fn func(record *managedPoll) error) (models.Poll, error) {
	record, ok := s.lookup(id)
	if !ok {
		return models.Poll{}, ErrPollNotFound
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	if err := fn(record); err != nil {
		return record.snapshot(), err
	}
	return record.snapshot(), nil
}

// EvictIf removes the poll when cond holds for it, deciding under the poll lock.
func (s *PollStore) EvictIf(id string, cond func(poll models.Poll) bool) bool {
	record, ok := s.lookup(id)
	if !ok {
		return false
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	if !cond(record.poll) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.polls[id]; !ok || current != record {
		return false
	}
	delete(s.polls, id)
	return true
}
