package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds the settings of reminder delivery
type Slack struct {
	botToken  string
	channelID string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token for activity reminders",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("PROCRISK_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel receiving activity reminders (overrides activity.slack_channel_id)",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("PROCRISK_SLACK_CHANNEL_ID"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel-id", x.channelID),
	)
}

// BotToken returns the Slack bot token
func (x *Slack) BotToken() string {
	return x.botToken
}

// Configure builds the activity notifier. It returns nil when no token or
// no channel is configured. fallbackChannel comes from the TOML file.
func (x *Slack) Configure(fallbackChannel string) (*slack.Notifier, error) {
	channelID := x.channelID
	if channelID == "" {
		channelID = fallbackChannel
	}
	if x.botToken == "" || channelID == "" {
		return nil, nil
	}

	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return slack.NewNotifier(svc, channelID), nil
}
