package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/cli/config"
	"github.com/secmon-lab/procrisk/pkg/usecase"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// errInconsistentDB is returned when the DB consistency check finds issues
var errInconsistentDB = goerr.New("DB consistency check found issues")

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var checkDB bool

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "check-db",
		Usage:       "Check the derived fields of stored risks and processes",
		Destination: &checkDB,
	})

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the configuration file and optionally check DB consistency",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			file, riskCfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}
			logger.Info("Configuration validation passed",
				"path", appCfg.Path(),
				"category_count", len(file.Categories),
				"unit_count", len(file.Units),
				"scoring_policy", riskCfg.ScoringPolicy,
			)

			if !checkDB {
				return nil
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
			result, err := uc.ValidateDB(ctx)
			if err != nil {
				return goerr.Wrap(err, "DB consistency check failed")
			}

			if result.HasIssues() {
				for _, issue := range result.Issues {
					logger.Warn("DB consistency issue found",
						"risk_id", issue.RiskID,
						"process_id", issue.ProcessID,
						"field", issue.Field,
						"message", issue.Message,
						"expected", issue.Expected,
						"actual", issue.Actual,
					)
				}
				return goerr.Wrap(errInconsistentDB, "derived fields are out of date",
					goerr.V("issue_count", len(result.Issues)))
			}

			logger.Info("DB consistency check passed")
			return nil
		},
	}
}
