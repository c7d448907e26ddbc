package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pollbot"

var (
	PollsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "polls_created_total",
		Help:      "Total number of polls posted to a channel",
	})
	PollsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "polls_finished_total",
		Help:      "Total number of polls finished, by trigger",
	}, []string{"trigger"})
	PollsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "polls_removed_total",
		Help:      "Total number of polls removed by their author",
	})
	VotesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_accepted_total",
		Help:      "Total number of votes recorded",
	})
	VotesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_rejected_total",
		Help:      "Total number of votes rejected, by reason",
	}, []string{"reason"})
	SweepEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cleanup",
		Name:      "evictions_total",
		Help:      "Total number of inactive polls evicted by the cleanup sweep",
	})
	LivePolls = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "polls_in_store",
		Help:      "Number of polls currently held in memory",
	})
)
