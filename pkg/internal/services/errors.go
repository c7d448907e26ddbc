package services

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientOptions = errors.New("a poll needs at least two options")
	ErrMalformedToken      = errors.New("malformed vote token")
	ErrPollNotFound        = errors.New("poll not found")
	ErrVoteNotAllowed      = errors.New("vote not allowed")
	ErrPermissionDenied    = errors.New("only the poll author can do that")
	ErrPollClosed          = errors.New("poll has ended")
	ErrUnknownAction       = errors.New("unknown poll action")
)

// GatewayError is returned when the chat transport fails.
type GatewayError struct {
	Op  string
	Err error
}

func (v *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s failed: %v", v.Op, v.Err)
}

func (v *GatewayError) Unwrap() error {
	return v.Err
}

func wrapGateway(op string, err error) error {
	if err == nil {
		return nil
	}
	var gErr *GatewayError
	if errors.As(err, &gErr) {
		return err
	}
	return &GatewayError{Op: op, Err: err}
}
