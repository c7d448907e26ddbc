package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	_, settings, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Polls.DefaultLimit != 1 || settings.Polls.DefaultExpiresIn != 30*time.Minute {
		t.Errorf("unexpected poll defaults: %+v", settings.Polls)
	}
	if settings.Slack.FallbackChannel != "random" || settings.Events.Kafka.Topic != "poll-events" {
		t.Errorf("unexpected defaults: %+v", settings)
	}
	if len(settings.Events.Kafka.Brokers) != 0 {
		t.Errorf("expected no brokers, got %v", settings.Events.Kafka.Brokers)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := `
bind = "127.0.0.1:9000"

[polls]
default_limit = 3
default_expires_in = "10m"

[slack]
fallback_channel = "polls"
`
	if err := os.WriteFile(filepath.Join(dir, "settings.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POLLBOT_SLACK_TOKEN", "xoxb-test")

	_, settings, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Bind != "127.0.0.1:9000" || settings.Polls.DefaultLimit != 3 {
		t.Errorf("settings file was not applied: %+v", settings)
	}
	if settings.Polls.DefaultExpiresIn != 10*time.Minute {
		t.Errorf("expected 10m expiry, got %s", settings.Polls.DefaultExpiresIn)
	}
	if settings.Slack.FallbackChannel != "polls" || settings.Slack.Token != "xoxb-test" {
		t.Errorf("unexpected slack settings: %+v", settings.Slack)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	dir := t.TempDir()
	content := "[polls]\ndefault_limit = 0\n"
	if err := os.WriteFile(filepath.Join(dir, "settings.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(dir); err == nil {
		t.Error("expected a zero limit to be rejected")
	}
}
