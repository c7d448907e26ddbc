package services

import (
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"github.com/samber/lo"
)

type ledgerEntry struct {
	voter   string
	options []string
}

// VoteLedger records which options every voter picked in a single poll.
// Voters are kept in slots in order of their first vote, so every listing
// derived from the ledger is deterministic.
// The ledger itself is not synchronized, the owning record guards it.
type VoteLedger struct {
	slots []ledgerEntry
	index map[string]int
}

func NewVoteLedger() *VoteLedger {
	return &VoteLedger{index: make(map[string]int)}
}

func (v *VoteLedger) entry(voter string) *ledgerEntry {
	if idx, ok := v.index[voter]; ok {
		return &v.slots[idx]
	}
	return nil
}

func (v *VoteLedger) Has(voter, option string) bool {
	entry := v.entry(voter)
	return entry != nil && lo.Contains(entry.options, option)
}

func (v *VoteLedger) CountOf(voter string) int {
	if entry := v.entry(voter); entry != nil {
		return len(entry.options)
	}
	return 0
}

// CanVote applies the poll rules to a prospective vote.
// A first vote is always accepted. Further votes need a multiple choice poll,
// room under the limit and an option the voter has not picked yet.
func (v *VoteLedger) CanVote(cfg models.PollConfig, voter, option string) bool {
	count := v.CountOf(voter)
	if count == 0 {
		return true
	}
	if !cfg.Multiple {
		return false
	}
	if !cfg.Unlimited() && count >= cfg.Limit {
		return false
	}
	return !v.Has(voter, option)
}

// Apply records the vote without checking the poll rules.
// It reports whether the ledger changed; repeating a vote is a no-op.
func (v *VoteLedger) Apply(voter, option string) bool {
	entry := v.entry(voter)
	if entry == nil {
		v.index[voter] = len(v.slots)
		v.slots = append(v.slots, ledgerEntry{voter: voter, options: []string{option}})
		return true
	}
	if lo.Contains(entry.options, option) {
		return false
	}
	entry.options = append(entry.options, option)
	return true
}

func (v *VoteLedger) Total() int {
	return lo.SumBy(v.slots, func(item ledgerEntry) int {
		return len(item.options)
	})
}

func (v *VoteLedger) VotersFor(option string) []string {
	return lo.FilterMap(v.slots, func(item ledgerEntry, _ int) (string, bool) {
		return item.voter, lo.Contains(item.options, option)
	})
}

func (v *VoteLedger) Snapshot() []models.PollVoter {
	return lo.Map(v.slots, func(item ledgerEntry, _ int) models.PollVoter {
		return models.PollVoter{
			Name:    item.voter,
			Options: append([]string(nil), item.options...),
		}
	})
}

// CountTotalVotes sums the picks of every voter in a poll copy.
func CountTotalVotes(poll models.Poll) int {
	return lo.SumBy(poll.Voters, func(item models.PollVoter) int {
		return len(item.Options)
	})
}

// VotersOf lists the voters of an option in a poll copy.
func VotersOf(poll models.Poll, option string) []string {
	return lo.FilterMap(poll.Voters, func(item models.PollVoter, _ int) (string, bool) {
		return item.Name, lo.Contains(item.Options, option)
	})
}
