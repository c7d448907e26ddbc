package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
)

var errGatewayDown = errors.New("gateway down")

type sentMessage struct {
	Channel string
	Ref     string
	Content Message
}

type fakeGateway struct {
	mu sync.Mutex

	posted  []sentMessage
	updated []sentMessage
	deleted []sentMessage
	users   map[string]models.ChatUser
	seq     int

	failPost   bool
	failUpdate bool
	failDelete bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{users: make(map[string]models.ChatUser)}
}

func (v *fakeGateway) PostMessage(_ context.Context, channel string, content Message) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failPost {
		return "", errGatewayDown
	}
	v.seq++
	ref := fmt.Sprintf("ts-%d", v.seq)
	v.posted = append(v.posted, sentMessage{Channel: channel, Ref: ref, Content: content})
	return ref, nil
}

func (v *fakeGateway) UpdateMessage(_ context.Context, channel, ref string, content Message) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failUpdate {
		return errGatewayDown
	}
	v.updated = append(v.updated, sentMessage{Channel: channel, Ref: ref, Content: content})
	return nil
}

func (v *fakeGateway) DeleteMessage(_ context.Context, channel, ref string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failDelete {
		return errGatewayDown
	}
	v.deleted = append(v.deleted, sentMessage{Channel: channel, Ref: ref})
	return nil
}

func (v *fakeGateway) LookupUser(_ context.Context, fuzzyName string) (*models.ChatUser, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for name, user := range v.users {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(fuzzyName)) {
			out := user
			return &out, nil
		}
	}
	return nil, nil
}

func (v *fakeGateway) postedTexts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []string
	for _, item := range v.posted {
		out = append(out, item.Content.Text)
	}
	return out
}

func (v *fakeGateway) counts() (posted, updated, deleted int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.posted), len(v.updated), len(v.deleted)
}
