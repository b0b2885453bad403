package model

import (
	"time"

	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// KindCount counts risks per kind
type KindCount struct {
	Threats       int
	Opportunities int
}

// Total returns the sum over both kinds
func (c KindCount) Total() int {
	return c.Threats + c.Opportunities
}

func (c *KindCount) add(kind types.RiskKind) {
	switch kind {
	case types.RiskKindThreat:
		c.Threats++
	case types.RiskKindOpportunity:
		c.Opportunities++
	}
}

// RiskProfile summarizes the active risks of a scope
type RiskProfile struct {
	All          KindCount
	Confirmed    KindCount
	Unacceptable KindCount
	ByStage      map[types.RiskStage]int
}

// BuildProfile summarizes the active risks among risks
func BuildProfile(risks []*Risk, now time.Time) *RiskProfile {
	p := &RiskProfile{ByStage: make(map[types.RiskStage]int)}
	for _, r := range risks {
		if !r.IsActive(now) {
			continue
		}
		p.All.add(r.Kind)
		if r.Confirmed {
			p.Confirmed.add(r.Kind)
		}
		if r.Status == types.RiskStatusUnacceptable {
			p.Unacceptable.add(r.Kind)
		}
		p.ByStage[r.Stage]++
	}
	return p
}
