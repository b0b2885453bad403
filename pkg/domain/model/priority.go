package model

import (
	"sort"
	"time"

	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// RankRisks returns the priority of every risk. Active risks of each kind are
// ranked 1..N by descending (latest level - threshold value), ties broken by
// earlier report date then lower ID. Inactive risks get 0.
func RankRisks(risks []*Risk, now time.Time) map[int64]int {
	result := make(map[int64]int, len(risks))
	byKind := make(map[types.RiskKind][]*Risk)

	for _, r := range risks {
		if !r.IsActive(now) {
			result[r.ID] = 0
			continue
		}
		byKind[r.Kind] = append(byKind[r.Kind], r)
	}

	for _, group := range byKind {
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			da, db := a.LatestLevel-a.ThresholdValue, b.LatestLevel-b.ThresholdValue
			if da != db {
				return da > db
			}
			if !a.ReportDate.Equal(b.ReportDate) {
				return a.ReportDate.Before(b.ReportDate)
			}
			return a.ID < b.ID
		})
		for i, r := range group {
			result[r.ID] = i + 1
		}
	}

	return result
}
