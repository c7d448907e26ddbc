package services

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// VoteToken points a vote button at one option of one poll.
type VoteToken struct {
	PollID   string `json:"p"`
	OptionID string `json:"o"`
}

func NewID() string {
	return uuid.NewString()
}

func EncodeToken(pollId, optionId string) string {
	raw, _ := jsoniter.Marshal(VoteToken{PollID: pollId, OptionID: optionId})
	return base64.URLEncoding.EncodeToString(raw)
}

func DecodeToken(token string) (VoteToken, error) {
	var out VoteToken
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if err := jsoniter.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if len(out.PollID) == 0 || len(out.OptionID) == 0 {
		return out, fmt.Errorf("%w: missing poll or option", ErrMalformedToken)
	}
	return out, nil
}
