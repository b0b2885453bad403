package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
	"github.com/secmon-lab/procrisk/pkg/repository/firestore"
	"github.com/secmon-lab/procrisk/pkg/repository/memory"
)

func newMemoryRepository(t *testing.T) interfaces.Repository {
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

var testDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newTestRisk(infoID int64, unitID types.UnitID, processID int64, kind types.RiskKind) *model.Risk {
	return &model.Risk{
		InfoID:     infoID,
		Kind:       kind,
		Context:    model.BusinessContext(unitID, processID),
		ReportDate: testDay,
		ReporterID: "U001",
		ReviewDate: testDay.AddDate(1, 0, 0),
		Threshold:  model.DefaultCriteria(),
		Status:     types.RiskStatusUnknown,
		Stage:      types.RiskStageUnconfirmed,
	}
}
