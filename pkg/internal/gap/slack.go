package gap

import (
	"context"
	"net/http"
	"strings"
	"time"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/services"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/slack-go/slack"
)

const (
	DefaultSlackEndpoint = slack.APIURL
	DefaultDirectoryTTL  = 10 * time.Minute

	directoryCacheKey = "slack-user-directory"
	directoryCacheTag = "slack-users"
)

// SlackMember is the part of a Slack user the directory keeps around.
type SlackMember struct {
	ID          string
	Name        string
	DisplayName string
	RealName    string
	Avatar      string
}

func NewSlackMember(user slack.User) SlackMember {
	return SlackMember{
		ID:          user.ID,
		Name:        user.Name,
		DisplayName: user.Profile.DisplayName,
		RealName:    lo.Ternary(len(user.RealName) > 0, user.RealName, user.Profile.RealName),
		Avatar:      user.Profile.Image48,
	}
}

func (v SlackMember) ToChatUser() models.ChatUser {
	return models.ChatUser{
		ID:       v.ID,
		Name:     v.Name,
		RealName: v.RealName,
		Avatar:   v.Avatar,
	}
}

type directoryState struct {
	Members []SlackMember
}

// Slack talks to the Slack Web API on behalf of the bot.
type Slack struct {
	DirectoryTTL time.Duration

	client  *slack.Client
	marshal *marshaler.Marshaler
}

// NewSlack creates a Slack client. The user directory is cached in cacheStore
// when one is given, otherwise it is fetched on every lookup.
func NewSlack(endpoint, token string, cacheStore store.StoreInterface) *Slack {
	endpoint = lo.Ternary(len(endpoint) > 0, endpoint, DefaultSlackEndpoint)
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	out := &Slack{
		DirectoryTTL: DefaultDirectoryTTL,
		client: slack.New(
			token,
			slack.OptionAPIURL(endpoint),
			slack.OptionHTTPClient(&http.Client{Timeout: 10 * time.Second}),
		),
	}
	if cacheStore != nil {
		out.marshal = marshaler.New(cache.New[any](cacheStore))
	}
	return out
}

func messageOptions(content services.Message) []slack.MsgOption {
	return []slack.MsgOption{
		slack.MsgOptionText(content.Text, false),
		slack.MsgOptionBlocks(content.Blocks...),
	}
}

func (v *Slack) PostMessage(ctx context.Context, channel string, content services.Message) (string, error) {
	_, ts, err := v.client.PostMessageContext(ctx, channel, messageOptions(content)...)
	if err != nil {
		return "", err
	}
	return ts, nil
}

func (v *Slack) UpdateMessage(ctx context.Context, channel, ref string, content services.Message) error {
	_, _, _, err := v.client.UpdateMessageContext(ctx, channel, ref, messageOptions(content)...)
	return err
}

func (v *Slack) DeleteMessage(ctx context.Context, channel, ref string) error {
	_, _, err := v.client.DeleteMessageContext(ctx, channel, ref)
	return err
}

// ListMembers returns the active members of the workspace.
func (v *Slack) ListMembers(ctx context.Context) ([]SlackMember, error) {
	if v.marshal != nil {
		if cached, err := v.marshal.Get(ctx, directoryCacheKey, new(directoryState)); err == nil {
			return cached.(*directoryState).Members, nil
		}
	}

	log.Debug().Msg("Fetching slack user directory...")
	users, err := v.client.GetUsersContext(ctx)
	if err != nil {
		return nil, err
	}
	members := lo.FilterMap(users, func(item slack.User, _ int) (SlackMember, bool) {
		return NewSlackMember(item), !item.Deleted
	})

	if v.marshal != nil {
		err := v.marshal.Set(
			ctx,
			directoryCacheKey,
			directoryState{Members: members},
			store.WithExpiration(v.DirectoryTTL),
			store.WithTags([]string{directoryCacheTag}),
			store.WithCost(int64(len(members))+1),
		)
		if err != nil {
			log.Warn().Err(err).Msg("An error occurred when caching slack user directory...")
		}
	}

	return members, nil
}

// InvalidateDirectory drops the cached user directory.
func (v *Slack) InvalidateDirectory(ctx context.Context) error {
	if v.marshal == nil {
		return nil
	}
	return v.marshal.Invalidate(ctx, store.WithInvalidateTags([]string{directoryCacheTag}))
}

// LookupUser finds a member by id or handle, falling back to a case
// insensitive prefix match on handle, display name or real name.
func (v *Slack) LookupUser(ctx context.Context, fuzzyName string) (*models.ChatUser, error) {
	needle := strings.TrimPrefix(strings.TrimSpace(fuzzyName), "@")
	if len(needle) == 0 {
		return nil, nil
	}

	members, err := v.ListMembers(ctx)
	if err != nil {
		return nil, err
	}

	member, ok := lo.Find(members, func(item SlackMember) bool {
		return item.ID == needle || item.Name == needle
	})
	if !ok {
		lower := strings.ToLower(needle)
		member, ok = lo.Find(members, func(item SlackMember) bool {
			return lo.SomeBy([]string{item.Name, item.DisplayName, item.RealName}, func(candidate string) bool {
				return len(candidate) > 0 && strings.HasPrefix(strings.ToLower(candidate), lower)
			})
		})
	}
	if !ok {
		return nil, nil
	}

	return lo.ToPtr(member.ToChatUser()), nil
}
