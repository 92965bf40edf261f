package notify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	slackapi "github.com/slack-go/slack"

	"github.com/zulandar/caravan/internal/config"
)

func TestFromConfig_Empty(t *testing.T) {
	ns := FromConfig(config.NotifyConfig{})
	if len(ns) != 0 {
		t.Errorf("len(notifiers) = %d, want 0 for empty config", len(ns))
	}
}

func TestFromConfig_All(t *testing.T) {
	ns := FromConfig(config.NotifyConfig{
		Command: "true",
		Slack:   config.SlackNotify{Token: "xoxb-1", Channel: "#c"},
		Discord: config.DiscordNotify{Token: "tok", ChannelID: "123"},
	})
	if len(ns) != 3 {
		t.Errorf("len(notifiers) = %d, want 3", len(ns))
	}
}

func TestCommandNotifier_Template(t *testing.T) {
	out := filepath.Join(t.TempDir(), "note.txt")
	n := &commandNotifier{template: "printf '%s|%s' '{{.Summary}}' '{{.Body}}' > " + out}

	n.Notify(Event{Summary: "sync done", Body: "2 pushed"})

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("command did not run: %v", err)
	}
	if string(data) != "sync done|2 pushed" {
		t.Errorf("output = %q, want the substituted template", data)
	}
}

// mockSlack captures posted messages.
type mockSlack struct {
	channel string
	options int
}

func (m *mockSlack) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.channel = channelID
	m.options = len(options)
	return "", "", nil
}

func TestSlackNotifier(t *testing.T) {
	mock := &mockSlack{}
	n := &slackNotifier{client: mock, channel: "#datasets"}

	n.Notify(Event{Summary: "hello"})

	if mock.channel != "#datasets" {
		t.Errorf("channel = %q, want %q", mock.channel, "#datasets")
	}
	if mock.options == 0 {
		t.Error("no message options posted")
	}
}

// mockDiscord captures sent messages.
type mockDiscord struct {
	channelID string
	content   string
}

func (m *mockDiscord) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.channelID = channelID
	m.content = content
	return &discordgo.Message{}, nil
}

func TestDiscordNotifier(t *testing.T) {
	mock := &mockDiscord{}
	n := &discordNotifier{channelID: "42", session: mock}

	n.Notify(Event{Summary: "sync done", Body: "details"})

	if mock.channelID != "42" {
		t.Errorf("channelID = %q, want %q", mock.channelID, "42")
	}
	if !strings.Contains(mock.content, "sync done") || !strings.Contains(mock.content, "details") {
		t.Errorf("content = %q, want summary and body", mock.content)
	}
}
