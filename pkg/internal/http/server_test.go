package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/config"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/gap"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

// slackStub answers like the Slack Web API for the calls the bot makes.
func slackStub(posted *int32) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		switch r.URL.Path {
		case "/chat.postMessage":
			n := atomic.AddInt32(posted, 1)
			_, _ = fmt.Fprintf(w, `{"ok":true,"channel":"C1","ts":"1700000000.%06d"}`, n)
		case "/users.list":
			_, _ = w.Write([]byte(`{"ok":true,"members":[{"id":"U1","name":"alice"},{"id":"U2","name":"bob"}]}`))
		default:
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	})
}

func signSlackRequest(secret, timestamp, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

type testEnv struct {
	app        *fiber.App
	controller *services.PollController
	sweeper    *services.PollSweeper
	posted     *int32
}

func newTestEnv(t *testing.T, mutate func(settings *config.Settings)) testEnv {
	var posted int32
	slack := httptest.NewServer(slackStub(&posted))
	t.Cleanup(slack.Close)

	var settings config.Settings
	settings.Bind = "127.0.0.1:0"
	settings.AdminToken = "admin-secret"
	if mutate != nil {
		mutate(&settings)
	}

	gateway := gap.NewSlack(slack.URL, "xoxb-test", nil)
	store := services.NewPollStore()
	controller := services.NewPollController(store, gateway, services.ControllerOptions{})
	bot := services.NewPollBot(controller, gateway, "")
	sweeper := services.NewPollSweeper(store, nil)

	return testEnv{
		app:        NewServer(settings, bot, sweeper).Fiber(),
		controller: controller,
		sweeper:    sweeper,
		posted:     &posted,
	}
}

func (v testEnv) do(t *testing.T, method, path, contentType, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if len(contentType) > 0 {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := v.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = jsoniter.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func (v testEnv) doJSON(t *testing.T, method, path string, payload any) (int, map[string]any) {
	t.Helper()
	raw, _ := jsoniter.Marshal(payload)
	return v.do(t, method, path, fiber.MIMEApplicationJSON, string(raw), nil)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestPollsApiLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	status, created := env.doJSON(t, fiber.MethodPost, "/api/polls", fiber.Map{
		"title":   "Lunch?",
		"author":  "alice",
		"channel": "C1",
		"options": []fiber.Map{{"name": "Pizza"}, {"name": "Sushi"}},
	})
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", status, created)
	}
	pollId := created["id"].(string)
	options := created["options"].([]any)
	pizza := options[0].(map[string]any)["id"].(string)
	sushi := options[1].(map[string]any)["id"].(string)

	status, _ = env.doJSON(t, fiber.MethodPost, "/api/polls/"+pollId+"/votes", fiber.Map{"option": pizza, "voter": "bob"})
	if status != fiber.StatusOK {
		t.Errorf("expected vote to be accepted, got %d", status)
	}
	status, _ = env.doJSON(t, fiber.MethodPost, "/api/polls/"+pollId+"/votes", fiber.Map{"option": sushi, "voter": "bob"})
	if status != fiber.StatusConflict {
		t.Errorf("expected second vote to conflict, got %d", status)
	}

	status, fetched := env.do(t, fiber.MethodGet, "/api/polls/"+pollId, "", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	metric := fetched["metric"].(map[string]any)
	if metric["total_answer"].(float64) != 1 {
		t.Errorf("expected one answer, got %v", metric["total_answer"])
	}

	status, _ = env.doJSON(t, fiber.MethodPost, "/api/polls/"+pollId+"/finish", fiber.Map{"requester": "mallory"})
	if status != fiber.StatusForbidden {
		t.Errorf("expected 403, got %d", status)
	}
	status, finished := env.doJSON(t, fiber.MethodPost, "/api/polls/"+pollId+"/finish", fiber.Map{"requester": "alice"})
	if status != fiber.StatusOK || finished["state"] != string(models.PollStateFinished) {
		t.Errorf("expected finished poll, got %d (%v)", status, finished)
	}

	status, _ = env.doJSON(t, fiber.MethodDelete, "/api/polls/"+pollId, fiber.Map{"requester": "alice"})
	if status != fiber.StatusOK {
		t.Errorf("expected delete to succeed, got %d", status)
	}
	if status, _ := env.do(t, fiber.MethodGet, "/api/polls/"+pollId, "", "", nil); status != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestPollsApiValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _ := env.doJSON(t, fiber.MethodPost, "/api/polls", fiber.Map{
		"title":   "Lunch?",
		"author":  "alice",
		"channel": "C1",
		"options": []fiber.Map{{"name": "Pizza"}},
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for a single option, got %d", status)
	}

	status, _ = env.doJSON(t, fiber.MethodPost, "/api/polls", fiber.Map{
		"title":      "Lunch?",
		"author":     "alice",
		"channel":    "C1",
		"options":    []fiber.Map{{"name": "Pizza"}, {"name": "Sushi"}},
		"expired_at": time.Now().Add(-time.Hour),
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for a past end, got %d", status)
	}

	status, _ = env.doJSON(t, fiber.MethodPost, "/api/polls", fiber.Map{
		"title":    "Lunch?",
		"author":   "alice",
		"channel":  "C1",
		"options":  []fiber.Map{{"name": "Pizza"}, {"name": "Sushi"}},
		"multiple": true,
		"limit":    150,
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for a limit above the maximum, got %d", status)
	}

	status, _ = env.doJSON(t, fiber.MethodPost, "/api/polls/missing/votes", fiber.Map{"option": "x", "voter": "bob"})
	if status != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestSlackCommandAndAction(t *testing.T) {
	env := newTestEnv(t, nil)
	store := env.controller.Store()

	form := url.Values{
		"text":       {`poll "Lunch?" "Pizza" "Sushi"`},
		"user_name":  {"alice"},
		"channel_id": {"C1"},
	}
	status, _ := env.do(t, fiber.MethodPost, "/api/slack/commands", fiber.MIMEApplicationForm, form.Encode(), nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	waitFor(t, func() bool {
		ids := store.ListIDs()
		if len(ids) != 1 {
			return false
		}
		poll, _ := store.Get(ids[0])
		return poll.Active
	})

	poll, _ := store.Get(store.ListIDs()[0])
	payload, _ := jsoniter.MarshalToString(fiber.Map{
		"type":    "block_actions",
		"user":    fiber.Map{"id": "U2", "name": "bob"},
		"channel": fiber.Map{"id": "C1"},
		"actions": []fiber.Map{{
			"type":      "button",
			"block_id":  "option-1",
			"action_id": services.ActionPollChoice,
			"value":     services.EncodeToken(poll.ID, poll.Options[1].ID),
		}},
	})
	status, _ = env.do(t, fiber.MethodPost, "/api/slack/actions", fiber.MIMEApplicationForm, url.Values{"payload": {payload}}.Encode(), nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	waitFor(t, func() bool {
		return len(store.VotersForOption(poll.ID, poll.Options[1].ID)) == 1
	})

	if status, _ := env.do(t, fiber.MethodPost, "/api/slack/actions", fiber.MIMEApplicationForm, "", nil); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 without payload, got %d", status)
	}
}

func TestSlackSignature(t *testing.T) {
	env := newTestEnv(t, func(settings *config.Settings) {
		settings.Slack.SigningSecret = "signing-secret"
	})

	body := url.Values{"text": {`poll "Q" "A"`}, "user_name": {"alice"}}.Encode()
	status, _ := env.do(t, fiber.MethodPost, "/api/slack/commands", fiber.MIMEApplicationForm, body, nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("expected unsigned request to be refused, got %d", status)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	status, _ = env.do(t, fiber.MethodPost, "/api/slack/commands", fiber.MIMEApplicationForm, body, map[string]string{
		"X-Slack-Request-Timestamp": timestamp,
		"X-Slack-Signature":         signSlackRequest("signing-secret", timestamp, body),
	})
	if status != fiber.StatusOK {
		t.Errorf("expected signed request to pass, got %d", status)
	}

	stale := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)
	status, _ = env.do(t, fiber.MethodPost, "/api/slack/commands", fiber.MIMEApplicationForm, body, map[string]string{
		"X-Slack-Request-Timestamp": stale,
		"X-Slack-Signature":         signSlackRequest("signing-secret", stale, body),
	})
	if status != fiber.StatusUnauthorized {
		t.Errorf("expected a stale request to be refused, got %d", status)
	}

	status, _ = env.do(t, fiber.MethodPost, "/api/slack/commands", fiber.MIMEApplicationForm, body, map[string]string{
		"X-Slack-Request-Timestamp": timestamp,
		"X-Slack-Signature":         signSlackRequest("other-secret", timestamp, body),
	})
	if status != fiber.StatusUnauthorized {
		t.Errorf("expected a forged signature to be refused, got %d", status)
	}
}

func TestAdminCleanup(t *testing.T) {
	env := newTestEnv(t, nil)
	env.controller.Store().Create("", models.Poll{State: models.PollStateFinished})

	if status, _ := env.do(t, fiber.MethodPost, "/admin/cleanup", "", "", nil); status != fiber.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", status)
	}

	status, out := env.do(t, fiber.MethodPost, "/admin/cleanup", "", "", map[string]string{
		fiber.HeaderAuthorization: "Bearer admin-secret",
	})
	if status != fiber.StatusOK || out["evicted"].(float64) != 1 {
		t.Errorf("expected one eviction, got %d (%v)", status, out)
	}

	disabled := newTestEnv(t, func(settings *config.Settings) {
		settings.AdminToken = ""
	})
	if status, _ := disabled.do(t, fiber.MethodGet, "/admin/polls", "", "", nil); status != fiber.StatusForbidden {
		t.Errorf("expected 403 when admin is disabled, got %d", status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(string(raw), "pollbot_polls_in_store") {
		t.Errorf("unexpected metrics response %d: %s", resp.StatusCode, fmt.Sprintf("%.200s", raw))
	}
}
