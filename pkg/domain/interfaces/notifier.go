package interfaces

import (
	"context"

	"github.com/secmon-lab/procrisk/pkg/domain/model"
)

// Notifier delivers follow-up activities to their assignee
type Notifier interface {
	// NotifyActivity announces a newly scheduled activity of risk
	NotifyActivity(ctx context.Context, risk *model.Risk, info *model.RiskInfo, activity *model.Activity) error
}
