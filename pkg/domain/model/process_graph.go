package model

import (
	"slices"

	"github.com/secmon-lab/procrisk/pkg/domain/model/config"
	"github.com/secmon-lab/procrisk/pkg/domain/types"
)

// ProcessRank is the derived ordering information of a process
type ProcessRank struct {
	Sequence int
	IsCore   bool
}

// ProcessGraph is the data flow graph between the processes of one owner
type ProcessGraph struct {
	processes map[int64]*Process
	ids       []int64

	providers     map[int64][]int64 // process -> internal providers of its inputs
	consumers     map[int64][]int64 // process -> consumers of its outputs
	outputs       map[int64]int
	externalInput map[int64]bool
	customerInput map[int64]bool
	feedsCustomer map[int64]bool
}

// NewProcessGraph builds the graph from the processes, data and partner
// categories of an owner. Data referring to unknown processes is ignored.
func NewProcessGraph(processes []*Process, data []*ProcessData, partners []*PartnerCategory) *ProcessGraph {
	g := &ProcessGraph{
		processes:     make(map[int64]*Process, len(processes)),
		providers:     make(map[int64][]int64),
		consumers:     make(map[int64][]int64),
		outputs:       make(map[int64]int),
		externalInput: make(map[int64]bool),
		customerInput: make(map[int64]bool),
		feedsCustomer: make(map[int64]bool),
	}
	for _, p := range processes {
		g.processes[p.ID] = p
		g.ids = append(g.ids, p.ID)
	}
	slices.Sort(g.ids)

	customers := make(map[int64]bool)
	for _, pc := range partners {
		if pc.IsCustomer {
			customers[pc.ID] = true
		}
	}

	for _, d := range data {
		provider := d.ProviderProcessID
		if _, ok := g.processes[provider]; ok {
			g.outputs[provider]++
			for _, pid := range d.ConsumerPartnerIDs {
				if customers[pid] {
					g.feedsCustomer[provider] = true
				}
			}
		}

		for _, consumer := range d.ConsumerProcessIDs {
			if _, ok := g.processes[consumer]; !ok {
				continue
			}
			if d.IsExternal() {
				g.externalInput[consumer] = true
				if customers[d.ProviderPartnerID] {
					g.customerInput[consumer] = true
				}
			}
			if d.IsCustomerVoice {
				g.customerInput[consumer] = true
			}
			if _, ok := g.processes[provider]; ok && provider != consumer {
				g.providers[consumer] = appendUnique(g.providers[consumer], provider)
				g.consumers[provider] = appendUnique(g.consumers[provider], consumer)
			}
		}
	}

	for id := range g.providers {
		slices.Sort(g.providers[id])
	}
	for id := range g.consumers {
		slices.Sort(g.consumers[id])
	}
	return g
}

func appendUnique(ids []int64, id int64) []int64 {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// Providers returns the internal providers of the inputs of process id
func (g *ProcessGraph) Providers(id int64) []int64 {
	return g.providers[id]
}

// Consumers returns the processes consuming outputs of process id
func (g *ProcessGraph) Consumers(id int64) []int64 {
	return g.consumers[id]
}

// CoreProcesses returns the set of core processes. A process is core when
// it receives data from a customer or flagged as customer voice, when it
// delivers data to a customer, or when it feeds a core process.
func (g *ProcessGraph) CoreProcesses() map[int64]bool {
	core := make(map[int64]bool)
	var queue []int64
	for _, id := range g.ids {
		if g.customerInput[id] || g.feedsCustomer[id] {
			core[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, up := range g.providers[id] {
			if !core[up] {
				core[up] = true
				queue = append(queue, up)
			}
		}
	}
	return core
}

func tierOf(p *Process, core bool) int {
	if core {
		return 0
	}
	switch p.Type {
	case types.ProcessTypeOperation:
		return 0
	case types.ProcessTypeManagement:
		return 1
	case types.ProcessTypeSupport:
		return 2
	default:
		return 3
	}
}

// Rank computes the sequence and the core flag of every process.
//
// Operation and core processes with an external input get Base; those fed
// only internally get Base plus the sum of their operation/core providers.
// Each following tier (management, support, project management) starts at
// the maximum sequence of the tiers before it, plus Base, plus the output
// offset, plus the sum of its same-tier providers. A provider reached again
// while its own sequence is being computed closes a cycle and counts 0.
func (g *ProcessGraph) Rank(cfg config.SequenceConfig) map[int64]ProcessRank {
	core := g.CoreProcesses()

	tiers := make(map[int64]int, len(g.ids))
	for _, id := range g.ids {
		tiers[id] = tierOf(g.processes[id], core[id])
	}

	seq := make(map[int64]int, len(g.ids))
	visiting := make(map[int64]bool)
	seed := 0

	var compute func(id int64) int
	compute = func(id int64) int {
		if v, ok := seq[id]; ok {
			return v
		}
		if visiting[id] {
			return 0
		}
		visiting[id] = true
		defer delete(visiting, id)

		tier := tiers[id]
		sum := 0
		for _, up := range g.providers[id] {
			if tiers[up] == tier {
				sum += compute(up)
			}
		}

		var v int
		if tier == 0 {
			if g.externalInput[id] {
				v = cfg.Base
			} else {
				v = cfg.Base + sum
			}
		} else {
			v = seed + cfg.Base + cfg.OutputOffset(g.outputs[id]) + sum
		}
		seq[id] = v
		return v
	}

	for tier := 0; tier <= 3; tier++ {
		maxSeq := seed
		for _, id := range g.ids {
			if tiers[id] != tier {
				continue
			}
			if v := compute(id); v > maxSeq {
				maxSeq = v
			}
		}
		seed = maxSeq
	}

	result := make(map[int64]ProcessRank, len(g.ids))
	for _, id := range g.ids {
		result[id] = ProcessRank{Sequence: seq[id], IsCore: core[id]}
	}
	return result
}
