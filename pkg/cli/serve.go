package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/cli/config"
	httpctrl "github.com/secmon-lab/procrisk/pkg/controller/http"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/service/worker"
	"github.com/secmon-lab/procrisk/pkg/usecase"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var noAuthn string
	var sweepInterval time.Duration
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("PROCRISK_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "no-authn",
			Usage:       "Skip the identity headers and run every request as this user with all roles (development only). Example: --no-authn=U1234567890",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PROCRISK_NO_AUTHN"),
			Destination: &noAuthn,
		},
		&cli.DurationFlag{
			Name:        "sweep-interval",
			Usage:       "Interval of the background review sweep",
			Value:       time.Hour,
			Sources:     cli.EnvVars("PROCRISK_SWEEP_INTERVAL"),
			Destination: &sweepInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
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
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			ucOpts := []usecase.Option{
				usecase.WithRiskConfig(riskCfg),
			}

			notifier, err := slackCfg.Configure(riskCfg.Activity.SlackChannelID)
			if err != nil {
				return err
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logging.Default().Info("Slack activity reminders enabled")
			} else {
				logging.Default().Info("Slack bot token or channel not configured, activity reminders disabled")
			}

			uc := usecase.New(repo, ucOpts...)

			sweeper := worker.NewReviewSweepWorker(uc.Review, sweepInterval)
			if err := sweeper.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start review sweep worker")
			}

			var httpOpts []httpctrl.Options
			if noAuthn != "" {
				logging.Default().Warn("Running in no-authn mode (development only)", "user_id", noAuthn)
				httpOpts = append(httpOpts, httpctrl.WithNoAuthn(model.Actor{
					UserID: strings.TrimSpace(noAuthn),
					Roles:  types.AllRoles(),
				}))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				sweeper.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				sweeper.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
