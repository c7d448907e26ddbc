package models

import (
	"time"
)

const (
	// DefaultPollLimit is the amount of options a single voter may pick.
	DefaultPollLimit = 1
	// UnlimitedPollLimit lifts the per-voter cap of a multiple choice poll.
	UnlimitedPollLimit = -1
	// MaxPollLimit is the largest accepted explicit limit.
	MaxPollLimit = 100

	DefaultPollExpiresIn = 30 * time.Minute
	QuickPollExpiresIn   = 5 * time.Minute
)

type PollState string

const (
	PollStatePending  = PollState("pending")
	PollStateActive   = PollState("active")
	PollStateFinished = PollState("finished")
	PollStateRemoved  = PollState("removed")
)

// PollConfig holds the voting rules of a poll.
// Zero values are replaced by WithDefaults: Limit becomes DefaultPollLimit
// and ExpiresIn becomes DefaultPollExpiresIn.
type PollConfig struct {
	Multiple  bool          `json:"multiple"`
	Limit     int           `json:"limit" validate:"min=-1,max=100"`
	ExpiresIn time.Duration `json:"expires_in"`
}

func (v PollConfig) WithDefaults() PollConfig {
	if v.Limit == 0 {
		v.Limit = DefaultPollLimit
	}
	if v.ExpiresIn <= 0 {
		v.ExpiresIn = DefaultPollExpiresIn
	}
	return v
}

// Unlimited reports whether a voter may pick any number of options.
func (v PollConfig) Unlimited() bool {
	return v.Limit < 0
}

type PollOption struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Subtitle *string `json:"subtitle"`
}

type PollVoter struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// Poll is a point-in-time copy of a managed poll.
// Voters keeps the order in which each voter cast their first vote.
type Poll struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Author     string       `json:"author"`
	Channel    string       `json:"channel"`
	Options    []PollOption `json:"options"`
	Config     PollConfig   `json:"config"`
	State      PollState    `json:"state"`
	Active     bool         `json:"active"`
	Scheduled  bool         `json:"scheduled"`
	MessageRef string       `json:"message_ref"`
	CreatedAt  time.Time    `json:"created_at"`
	ExpiredAt  *time.Time   `json:"expired_at"`
	Voters     []PollVoter  `json:"voters"`
}

func (v Poll) Finished() bool {
	return v.State == PollStateFinished
}

func (v Poll) HasOption(id string) bool {
	for _, option := range v.Options {
		if option.ID == id {
			return true
		}
	}
	return false
}

type PollResult struct {
	Option     PollOption `json:"option"`
	Votes      int        `json:"votes"`
	Percentage float64    `json:"percentage"`
	Voters     []string   `json:"voters"`
	MostVoted  bool       `json:"most_voted"`
}

type PollMetric struct {
	TotalAnswer int          `json:"total_answer"`
	Results     []PollResult `json:"results"`
}
