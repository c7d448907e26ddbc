package services

import (
	"sort"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"github.com/samber/lo"
)

// RankPoll computes the share of votes of every option, highest first.
// Shares are floored to basis points, so they never add up to more than 100.
// Options with equal shares keep their declaration order. The leader is only
// marked as most voted when it has at least one vote.
func RankPoll(poll models.Poll) models.PollMetric {
	total := CountTotalVotes(poll)

	results := lo.Map(poll.Options, func(option models.PollOption, _ int) models.PollResult {
		voters := VotersOf(poll, option.ID)
		var percentage float64
		if total > 0 {
			percentage = float64(len(voters)*10000/total) / 100
		}
		return models.PollResult{
			Option:     option,
			Votes:      len(voters),
			Percentage: percentage,
			Voters:     voters,
		}
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Percentage > results[j].Percentage
	})

	if len(results) > 0 && results[0].Percentage > 0 {
		results[0].MostVoted = true
	}

	return models.PollMetric{
		TotalAnswer: total,
		Results:     results,
	}
}
