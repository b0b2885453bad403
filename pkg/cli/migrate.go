package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/repository/firestore"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

var errDestructiveMigration = goerr.New("migration plan contains destructive steps")

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var dryRun bool
	var allowDestructive bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create the Firestore composite indexes of the risk register",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Google Cloud project of the Firestore database",
				Required:    true,
				Sources:     cli.EnvVars("PROCRISK_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore database ID",
				Value:       "(default)",
				Sources:     cli.EnvVars("PROCRISK_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Print the plan without applying it",
				Destination: &dryRun,
			},
			&cli.BoolFlag{
				Name:        "allow-destructive",
				Usage:       "Apply plans that drop existing indexes",
				Destination: &allowDestructive,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default().With("project_id", projectID, "database_id", databaseID)

			client, err := fireconf.NewClient(ctx, projectID, databaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			indexes := firestore.Indexes()
			plan, err := client.GetMigrationPlan(ctx, indexes)
			if err != nil {
				return goerr.Wrap(err, "failed to create migration plan")
			}
			if len(plan.Steps) == 0 {
				logger.Info("Indexes are up to date")
				return nil
			}

			destructive := 0
			for _, step := range plan.Steps {
				if step.Destructive {
					destructive++
				}
				logger.Info("Migration step",
					"collection", step.Collection,
					"operation", step.Operation,
					"description", step.Description,
					"destructive", step.Destructive)
			}

			if dryRun {
				return nil
			}
			if destructive > 0 && !allowDestructive {
				return goerr.Wrap(errDestructiveMigration, "rerun with --allow-destructive to apply",
					goerr.V("destructive_steps", destructive))
			}

			if err := client.Migrate(ctx, indexes); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}
			logger.Info("Indexes migrated", "steps", len(plan.Steps))
			return nil
		},
	}
}
