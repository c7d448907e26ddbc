package services

import (
	"errors"
	"testing"
	"time"

	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
)

func TestParsePollCommand(t *testing.T) {
	cmd, err := ParsePollCommand(`huemul poll "Lunch?" "Pizza" 'Sushi\nNear the office'`)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Title != "Lunch?" {
		t.Errorf("expected title Lunch?, got %q", cmd.Title)
	}
	if len(cmd.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(cmd.Options))
	}
	if cmd.Options[0].Name != "Pizza" || cmd.Options[0].Subtitle != nil {
		t.Errorf("unexpected first option %+v", cmd.Options[0])
	}
	if cmd.Options[1].Name != "Sushi" || cmd.Options[1].Subtitle == nil || *cmd.Options[1].Subtitle != "Near the office" {
		t.Errorf("unexpected second option %+v", cmd.Options[1])
	}
	if cmd.Config != (models.PollConfig{}) {
		t.Errorf("expected zero config, got %+v", cmd.Config)
	}
}

func TestParsePollCommandInsufficientOptions(t *testing.T) {
	inputs := []string{
		`poll`,
		`poll "Only a title"`,
		`poll "Title" "One option"`,
		`poll "Title" "One option" "unterminated`,
		`poll Title Pizza Sushi`,
	}
	for _, input := range inputs {
		if _, err := ParsePollCommand(input); !errors.Is(err, ErrInsufficientOptions) {
			t.Errorf("expected ErrInsufficientOptions for %q, got %v", input, err)
		}
	}
}

func TestParsePollCommandKeywordInsideTitle(t *testing.T) {
	cmd, err := ParsePollCommand(`"Best poll ever?" "Yes" "No"`)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Title != "Best poll ever?" {
		t.Errorf("expected title to survive keyword stripping, got %q", cmd.Title)
	}
}

func TestParsePollCommandEscapes(t *testing.T) {
	cmd, err := ParsePollCommand(`poll "Say \"hi\"" "it's" 'don\'t'`)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Title != `Say "hi"` {
		t.Errorf("unexpected title %q", cmd.Title)
	}
	if cmd.Options[0].Name != "it's" || cmd.Options[1].Name != "don't" {
		t.Errorf("unexpected options %+v", cmd.Options)
	}
}

func TestParsePollCommandSettings(t *testing.T) {
	cmd, err := ParsePollCommand(`poll "Title" "A" "B" "C" limit=2 expires=10m`)
	if err != nil {
		t.Fatal(err)
	}
	if !cmd.Config.Multiple || cmd.Config.Limit != 2 || cmd.Config.ExpiresIn != 10*time.Minute {
		t.Errorf("unexpected config %+v", cmd.Config)
	}

	cmd, err = ParsePollCommand(`poll quick "Title" "A" "B"`)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Config.ExpiresIn != models.QuickPollExpiresIn {
		t.Errorf("expected quick expiry, got %v", cmd.Config.ExpiresIn)
	}

	if _, err := ParsePollCommand(`poll "Title" "A" "B" limit=zero`); err == nil {
		t.Error("expected invalid limit to fail")
	}
	if _, err := ParsePollCommand(`poll "Title" "A" "B" expires=soon`); err == nil {
		t.Error("expected invalid expiry to fail")
	}
}
