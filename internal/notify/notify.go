// Package notify delivers best-effort notifications about caravan
// operations. Delivery errors are logged, never returned.
package notify

import (
	"log"
	"os/exec"
	"strings"

	"github.com/bwmarrin/discordgo"
	slackapi "github.com/slack-go/slack"

	"github.com/zulandar/caravan/internal/config"
)

// Event is one notification payload.
type Event struct {
	Summary string
	Body    string
}

// Notifier delivers a single event to one sink.
type Notifier interface {
	Notify(ev Event)
}

// FromConfig assembles the notifiers enabled in the configuration.
func FromConfig(cfg config.NotifyConfig) []Notifier {
	var ns []Notifier
	if cfg.Command != "" {
		ns = append(ns, &commandNotifier{template: cfg.Command})
	}
	if cfg.Slack.Token != "" {
		ns = append(ns, &slackNotifier{
			client:  slackapi.New(cfg.Slack.Token),
			channel: cfg.Slack.Channel,
		})
	}
	if cfg.Discord.Token != "" {
		ns = append(ns, &discordNotifier{
			token:     cfg.Discord.Token,
			channelID: cfg.Discord.ChannelID,
		})
	}
	return ns
}

// Send delivers the event to every notifier.
func Send(ns []Notifier, ev Event) {
	for _, n := range ns {
		n.Notify(ev)
	}
}

// commandNotifier runs a shell command template per event.
type commandNotifier struct {
	template string
}

func (c *commandNotifier) Notify(ev Event) {
	r := strings.NewReplacer(
		"{{.Summary}}", ev.Summary,
		"{{.Body}}", ev.Body,
	)
	cmd := exec.Command("sh", "-c", r.Replace(c.template))
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Printf("notify: command failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
}

// slackPoster abstracts the Slack API method we use, enabling test mocks.
type slackPoster interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

type slackNotifier struct {
	client  slackPoster
	channel string
}

func (s *slackNotifier) Notify(ev Event) {
	text := ev.Summary
	if ev.Body != "" {
		text += "\n" + ev.Body
	}
	if _, _, err := s.client.PostMessage(s.channel, slackapi.MsgOptionText(text, false)); err != nil {
		log.Printf("notify: slack post failed: %v", err)
	}
}

// discordSender abstracts the Discord API method we use, enabling test mocks.
type discordSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type discordNotifier struct {
	token     string
	channelID string
	session   discordSender
}

func (d *discordNotifier) Notify(ev Event) {
	if d.session == nil {
		s, err := discordgo.New("Bot " + d.token)
		if err != nil {
			log.Printf("notify: discord session: %v", err)
			return
		}
		d.session = s
	}
	text := ev.Summary
	if ev.Body != "" {
		text += "\n" + ev.Body
	}
	if _, err := d.session.ChannelMessageSend(d.channelID, text); err != nil {
		log.Printf("notify: discord send failed: %v", err)
	}
}
