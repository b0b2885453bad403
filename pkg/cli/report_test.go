package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

func TestWriteReport(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	risk := func(id int64, kind types.RiskKind, prio int, status types.RiskStatus, stage types.RiskStage) *model.Risk {
		return &model.Risk{
			ID:         id,
			Kind:       kind,
			Context:    model.BusinessContext("plant", 1),
			Confirmed:  stage >= types.RiskStageConfirmedUnevaluated,
			ReportDate: now,
			ReviewDate: now.AddDate(1, 0, 0),
			Status:     status,
			Stage:      stage,
			Priority:   prio,
		}
	}
	risks := []*model.Risk{
		risk(1, types.RiskKindOpportunity, 1, types.RiskStatusAcceptable, types.RiskStageValidated),
		risk(2, types.RiskKindThreat, 2, types.RiskStatusAcceptable, types.RiskStageValidated),
		risk(3, types.RiskKindThreat, 1, types.RiskStatusUnacceptable, types.RiskStageTreating),
	}

	var buf bytes.Buffer
	writeReport(&buf, risks, model.BuildProfile(risks, now))

	lines := strings.Split(buf.String(), "\n")
	gt.Bool(t, strings.HasPrefix(lines[0], "ID")).True()
	// threats first, by priority
	gt.Bool(t, strings.HasPrefix(lines[1], "3 ")).True()
	gt.Bool(t, strings.HasPrefix(lines[2], "2 ")).True()
	gt.Bool(t, strings.HasPrefix(lines[3], "1 ")).True()
	gt.String(t, buf.String()).Contains("Unacceptable")
	gt.String(t, buf.String()).Contains(types.RiskStageTreating.String())
}
