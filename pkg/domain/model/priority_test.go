package model_test

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

func rankedRisk(id int64, kind types.RiskKind, level, threshold int, reported time.Time) *model.Risk {
	return &model.Risk{
		ID:             id,
		Kind:           kind,
		ReportDate:     reported,
		ReviewDate:     baseDay.AddDate(1, 0, 0),
		LatestLevel:    level,
		ThresholdValue: threshold,
	}
}

func TestRankRisks(t *testing.T) {
	risks := []*model.Risk{
		rankedRisk(1, types.RiskKindThreat, 18, 36, baseDay),
		rankedRisk(2, types.RiskKindThreat, 45, 36, baseDay),
		rankedRisk(3, types.RiskKindThreat, 40, 36, baseDay.AddDate(0, 0, -1)),
		rankedRisk(4, types.RiskKindThreat, 40, 36, baseDay),
		rankedRisk(5, types.RiskKindOpportunity, 10, 20, baseDay),
		rankedRisk(6, types.RiskKindOpportunity, 30, 20, baseDay),
	}
	archivedAt := baseDay
	archived := rankedRisk(7, types.RiskKindThreat, 125, 1, baseDay)
	archived.ArchivedAt = &archivedAt
	risks = append(risks, archived)

	ranks := model.RankRisks(risks, baseDay)

	gt.Number(t, ranks[2]).Equal(1)
	gt.Number(t, ranks[3]).Equal(2) // earlier report wins the tie
	gt.Number(t, ranks[4]).Equal(3)
	gt.Number(t, ranks[1]).Equal(4)

	gt.Number(t, ranks[6]).Equal(1)
	gt.Number(t, ranks[5]).Equal(2)

	gt.Number(t, ranks[7]).Equal(0)
}

func TestRankRisks_Permutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var risks []*model.Risk
	for i := 1; i <= 200; i++ {
		kind := types.RiskKindThreat
		if i%3 == 0 {
			kind = types.RiskKindOpportunity
		}
		risks = append(risks, rankedRisk(int64(i), kind, rng.Intn(126), rng.Intn(126), baseDay.AddDate(0, 0, -rng.Intn(5))))
	}

	ranks := model.RankRisks(risks, baseDay)

	for _, kind := range types.AllRiskKinds() {
		var group []*model.Risk
		for _, r := range risks {
			if r.Kind == kind {
				group = append(group, r)
			}
		}

		seen := make(map[int]bool)
		for _, r := range group {
			p := ranks[r.ID]
			gt.Bool(t, p >= 1 && p <= len(group)).True()
			gt.Bool(t, seen[p]).False()
			seen[p] = true
		}

		sort.Slice(group, func(i, j int) bool { return ranks[group[i].ID] < ranks[group[j].ID] })
		for i := 1; i < len(group); i++ {
			prev, cur := group[i-1], group[i]
			gt.Bool(t, prev.LatestLevel-prev.ThresholdValue >= cur.LatestLevel-cur.ThresholdValue).True()
		}
	}
}
