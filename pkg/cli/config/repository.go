package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/repository/firestore"
	"github.com/secmon-lab/procrisk/pkg/repository/memory"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	backendMemory    = "memory"
	backendFirestore = "firestore"
)

// Repository selects where risks, evaluations, processes and tasks are stored
type Repository struct {
	backend    string
	projectID  string
	databaseID string
}

func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Storage backend (memory or firestore). memory loses all data on exit",
			Value:       backendMemory,
			Category:    "Repository",
			Sources:     cli.EnvVars("PROCRISK_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Google Cloud project of the Firestore database",
			Category:    "Repository",
			Sources:     cli.EnvVars("PROCRISK_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Category:    "Repository",
			Sources:     cli.EnvVars("PROCRISK_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	if r.backend != backendFirestore {
		return slog.GroupValue(slog.String("backend", r.backend))
	}
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("project_id", r.projectID),
		slog.String("database_id", r.databaseID),
	)
}

// Configure opens the selected backend. The caller closes it.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case backendFirestore:
		if r.projectID == "" {
			return nil, goerr.New("--firestore-project-id is required for the firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open firestore repository",
				goerr.V("project_id", r.projectID),
				goerr.V("database_id", r.databaseID))
		}
		logging.Default().Info("Repository opened", "repository", r)
		return repo, nil

	case backendMemory, "":
		logging.Default().Warn("Using in-memory repository, data is not persisted")
		return memory.New(), nil

	default:
		return nil, goerr.New("unknown repository backend", goerr.V("backend", r.backend))
	}
}
