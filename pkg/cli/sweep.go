package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/cli/config"
	"github.com/secmon-lab/procrisk/pkg/usecase"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSweep() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "sweep",
		Usage: "Archive risks past their review date and refresh derived fields once",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			_, riskCfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			uc := usecase.New(repo, usecase.WithRiskConfig(riskCfg))
			result, err := uc.Review.SweepReviews(ctx)
			if err != nil {
				return goerr.Wrap(err, "review sweep failed")
			}

			logger.Info("Review sweep completed",
				"checked", result.Checked,
				"archived", result.Archived,
				"changed", result.Changed,
				"failed", result.Failed,
			)

			overdue, err := uc.Review.OverdueActivities(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list overdue activities")
			}
			for _, a := range overdue {
				logger.Warn("Overdue activity",
					"risk_id", a.RiskID,
					"summary", a.Summary,
					"assignee", a.AssigneeID,
					"deadline", a.Deadline,
				)
			}
			return nil
		},
	}
}
