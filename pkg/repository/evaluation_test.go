package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
)

func runEvaluationRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	const maxAge = 30 * 24 * time.Hour

	t.Run("Put overwrites the evaluation of the same day", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, err := repo.Evaluation().Put(ctx, model.NewEvaluation(1, model.DefaultCriteria(), testDay.Add(9*time.Hour), maxAge))
		gt.NoError(t, err).Required()
		gt.Value(t, first.ID).NotEqual(int64(0))
		gt.Value(t, first.EvalDate).Equal(testDay)

		second := model.NewEvaluation(1, model.Criteria{Detectability: 1, Occurrence: 2, Severity: 3}, testDay.Add(17*time.Hour), maxAge)
		second.Comment = "after audit"
		stored, err := repo.Evaluation().Put(ctx, second)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.ID).Equal(first.ID)

		evals, err := repo.Evaluation().ListByRisk(ctx, 1)
		gt.NoError(t, err).Required()
		gt.Array(t, evals).Length(1)
		gt.Value(t, evals[0].Criteria).Equal(second.Criteria)
		gt.Value(t, evals[0].Comment).Equal("after audit")
	})

	t.Run("ListByRisk returns newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, offset := range []int{-10, 0, -3} {
			_, err := repo.Evaluation().Put(ctx, model.NewEvaluation(2, model.DefaultCriteria(), testDay.AddDate(0, 0, offset), maxAge))
			gt.NoError(t, err).Required()
		}
		_, err := repo.Evaluation().Put(ctx, model.NewEvaluation(3, model.DefaultCriteria(), testDay, maxAge))
		gt.NoError(t, err).Required()

		evals, err := repo.Evaluation().ListByRisk(ctx, 2)
		gt.NoError(t, err).Required()
		gt.Array(t, evals).Length(3)
		gt.Value(t, evals[0].EvalDate).Equal(testDay)
		gt.Value(t, evals[1].EvalDate).Equal(testDay.AddDate(0, 0, -3))
		gt.Value(t, evals[2].EvalDate).Equal(testDay.AddDate(0, 0, -10))
	})

	t.Run("Update marks an evaluation valid", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		stored, err := repo.Evaluation().Put(ctx, model.NewEvaluation(4, model.DefaultCriteria(), testDay, maxAge))
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.IsValid).False()

		stored.IsValid = true
		_, err = repo.Evaluation().Update(ctx, stored)
		gt.NoError(t, err).Required()

		got, err := repo.Evaluation().Get(ctx, stored.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, got.IsValid).True()

		_, err = repo.Evaluation().Get(ctx, 9999)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("DeleteByRisk", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Evaluation().Put(ctx, model.NewEvaluation(5, model.DefaultCriteria(), testDay, maxAge))
		gt.NoError(t, err).Required()
		_, err = repo.Evaluation().Put(ctx, model.NewEvaluation(6, model.DefaultCriteria(), testDay, maxAge))
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Evaluation().DeleteByRisk(ctx, 5)).Required()

		evals, err := repo.Evaluation().ListByRisk(ctx, 5)
		gt.NoError(t, err).Required()
		gt.Array(t, evals).Length(0)

		evals, err = repo.Evaluation().ListByRisk(ctx, 6)
		gt.NoError(t, err).Required()
		gt.Array(t, evals).Length(1)

		// a new evaluation on the same day gets a fresh record
		again, err := repo.Evaluation().Put(ctx, model.NewEvaluation(5, model.DefaultCriteria(), testDay, maxAge))
		gt.NoError(t, err).Required()
		gt.Value(t, again.ID).NotEqual(int64(0))
	})
}

func TestEvaluationRepository_Memory(t *testing.T) {
	runEvaluationRepositoryTest(t, newMemoryRepository)
}

func TestEvaluationRepository_Firestore(t *testing.T) {
	runEvaluationRepositoryTest(t, newFirestoreRepository)
}
