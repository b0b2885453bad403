package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
)

type Firestore struct {
	client      *firestore.Client
	riskInfo    *riskInfoRepository
	risk        *riskRepository
	evaluation  *evaluationRepository
	process     *processRepository
	processData *processDataRepository
	partner     *partnerRepository
	project     *projectRepository
	task        *taskRepository
	activity    *activityRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		for _, c := range f.collections() {
			c.collectionPrefix = prefix
		}
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:      client,
		riskInfo:    &riskInfoRepository{collection: collection{client: client}},
		risk:        &riskRepository{collection: collection{client: client}},
		evaluation:  &evaluationRepository{collection: collection{client: client}},
		process:     &processRepository{collection: collection{client: client}},
		processData: &processDataRepository{collection: collection{client: client}},
		partner:     &partnerRepository{collection: collection{client: client}},
		project:     &projectRepository{collection: collection{client: client}},
		task:        &taskRepository{collection: collection{client: client}},
		activity:    &activityRepository{collection: collection{client: client}},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) collections() []*collection {
	return []*collection{
		&f.riskInfo.collection,
		&f.risk.collection,
		&f.evaluation.collection,
		&f.process.collection,
		&f.processData.collection,
		&f.partner.collection,
		&f.project.collection,
		&f.task.collection,
		&f.activity.collection,
	}
}

func (f *Firestore) RiskInfo() interfaces.RiskInfoRepository {
	return f.riskInfo
}

func (f *Firestore) Risk() interfaces.RiskRepository {
	return f.risk
}

func (f *Firestore) Evaluation() interfaces.EvaluationRepository {
	return f.evaluation
}

func (f *Firestore) Process() interfaces.ProcessRepository {
	return f.process
}

func (f *Firestore) ProcessData() interfaces.ProcessDataRepository {
	return f.processData
}

func (f *Firestore) Partner() interfaces.PartnerRepository {
	return f.partner
}

func (f *Firestore) Project() interfaces.ProjectRepository {
	return f.project
}

func (f *Firestore) Task() interfaces.TaskRepository {
	return f.task
}

func (f *Firestore) Activity() interfaces.ActivityRepository {
	return f.activity
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
