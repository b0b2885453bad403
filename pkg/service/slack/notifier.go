package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// Notifier posts the follow-up activities of risks to one channel
type Notifier struct {
	svc       Service
	channelID string
}

func NewNotifier(svc Service, channelID string) *Notifier {
	return &Notifier{
		svc:       svc,
		channelID: channelID,
	}
}

// NotifyActivity posts a reminder for activity. An activity without assignee
// goes to the risk managers.
func (n *Notifier) NotifyActivity(ctx context.Context, risk *model.Risk, info *model.RiskInfo, activity *model.Activity) error {
	blocks, text := ActivityMessage(risk, info, activity)

	ts, err := n.svc.PostMessage(ctx, n.channelID, blocks, text)
	if err != nil {
		return goerr.Wrap(err, "failed to post activity",
			goerr.V("risk_id", risk.ID),
			goerr.V("activity_id", activity.ID))
	}

	logging.From(ctx).Info("activity posted to Slack",
		"risk_id", risk.ID,
		"activity_id", activity.ID,
		"channel_id", n.channelID,
		"ts", ts)
	return nil
}

// ActivityMessage renders the Block Kit message and its fallback text
func ActivityMessage(risk *model.Risk, info *model.RiskInfo, activity *model.Activity) ([]slack.Block, string) {
	assignee := "Risk managers"
	if activity.AssigneeID != "" {
		assignee = fmt.Sprintf("<@%s>", activity.AssigneeID)
	}
	title := fmt.Sprintf("%s: %s", activity.Summary, info.DisplayName())
	text := fmt.Sprintf("%s (risk #%d) for %s by %s", title, risk.ID, assignee, activity.Deadline.Format(time.DateOnly))

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Risk*\n#%d %s", risk.ID, risk.Kind.Label()), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Context*\n%s", risk.Context.String()), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Assignee*\n%s", assignee), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Deadline*\n%s", activity.Deadline.Format(time.DateOnly)), false, false),
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, false, false)),
		slack.NewSectionBlock(nil, fields, nil),
	}
	if activity.Note != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, activity.Note, false, false)))
	}
	return blocks, text
}
