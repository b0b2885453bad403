package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/cli/config"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdReport() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var unit string
	var projectID int64
	var all bool

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "unit",
			Usage:       "Report the business risks of one unit",
			Destination: &unit,
		},
		&cli.Int64Flag{
			Name:        "project",
			Usage:       "Report the risks of one project",
			Destination: &projectID,
		},
		&cli.BoolFlag{
			Name:        "all",
			Usage:       "Include archived risks",
			Destination: &all,
		},
	)

	return &cli.Command{
		Name:    "report",
		Aliases: []string{"r"},
		Usage:   "Print the risk register ordered by priority",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			_, riskCfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				_ = repo.Close()
			}()

			var opts []interfaces.ListRiskOption
			if unit != "" {
				opts = append(opts, interfaces.WithScope(types.ScopeBusiness), interfaces.WithUnit(types.UnitID(unit)))
			}
			if projectID != 0 {
				opts = append(opts, interfaces.WithScope(types.ScopeProject), interfaces.WithProject(projectID))
			}
			if !all {
				opts = append(opts, interfaces.WithoutArchived())
			}

			uc := usecase.New(repo, usecase.WithRiskConfig(riskCfg))
			risks, err := uc.Risk.ListRisks(ctx, opts...)
			if err != nil {
				return err
			}
			profile, err := uc.Risk.Profile(ctx, opts...)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if w == nil {
				w = os.Stdout
			}
			writeReport(w, risks, profile)
			return nil
		},
	}
}

var (
	headerColor       = color.New(color.Bold)
	unacceptableColor = color.New(color.FgRed, color.Bold)
	acceptableColor   = color.New(color.FgGreen)
	unknownColor      = color.New(color.FgYellow)
	archivedColor     = color.New(color.Faint)
)

func statusColor(r *model.Risk) *color.Color {
	if r.IsArchived() {
		return archivedColor
	}
	switch r.Status {
	case types.RiskStatusUnacceptable:
		return unacceptableColor
	case types.RiskStatusAcceptable:
		return acceptableColor
	default:
		return unknownColor
	}
}

// writeReport prints threats then opportunities, ranked risks first
func writeReport(w io.Writer, risks []*model.Risk, profile *model.RiskProfile) {
	sorted := make([]*model.Risk, len(risks))
	copy(sorted, risks)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Kind != b.Kind {
			return a.Kind == types.RiskKindThreat
		}
		if (a.Priority == 0) != (b.Priority == 0) {
			return a.Priority != 0
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID < b.ID
	})

	headerColor.Fprintf(w, "%-6s %-12s %-4s %-20s %-13s %-7s %-10s %s\n",
		"ID", "KIND", "PRIO", "STAGE", "STATUS", "LEVEL", "REVIEW", "CONTEXT")
	for _, r := range sorted {
		prio := "-"
		if r.Priority > 0 {
			prio = fmt.Sprintf("%d", r.Priority)
		}
		statusColor(r).Fprintf(w, "%-6d %-12s %-4s %-20s %-13s %3d/%-3d %-10s %s\n",
			r.ID,
			r.Kind.Label(),
			prio,
			r.Stage.String(),
			r.Status.Label(),
			r.LatestLevel,
			r.ThresholdValue,
			r.ReviewDate.Format(time.DateOnly),
			r.Context.String(),
		)
	}

	fmt.Fprintln(w)
	headerColor.Fprintln(w, "Profile (active risks)")
	fmt.Fprintf(w, "  %-14s %7s %13s %6s\n", "", "threats", "opportunities", "total")
	for _, row := range []struct {
		name  string
		count model.KindCount
	}{
		{"all", profile.All},
		{"confirmed", profile.Confirmed},
		{"unacceptable", profile.Unacceptable},
	} {
		fmt.Fprintf(w, "  %-14s %7d %13d %6d\n", row.name, row.count.Threats, row.count.Opportunities, row.count.Total())
	}
	for _, stage := range types.AllRiskStages() {
		if n := profile.ByStage[stage]; n > 0 {
			fmt.Fprintf(w, "  %-20s %d\n", stage.String(), n)
		}
	}
}
