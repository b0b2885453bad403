package memory

import (
	"github.com/secmon-lab/procrisk/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
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

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		riskInfo:    newRiskInfoRepository(),
		risk:        newRiskRepository(),
		evaluation:  newEvaluationRepository(),
		process:     newProcessRepository(),
		processData: newProcessDataRepository(),
		partner:     newPartnerRepository(),
		project:     newProjectRepository(),
		task:        newTaskRepository(),
		activity:    newActivityRepository(),
	}
}

func (m *Memory) RiskInfo() interfaces.RiskInfoRepository {
	return m.riskInfo
}

func (m *Memory) Risk() interfaces.RiskRepository {
	return m.risk
}

func (m *Memory) Evaluation() interfaces.EvaluationRepository {
	return m.evaluation
}

func (m *Memory) Process() interfaces.ProcessRepository {
	return m.process
}

func (m *Memory) ProcessData() interfaces.ProcessDataRepository {
	return m.processData
}

func (m *Memory) Partner() interfaces.PartnerRepository {
	return m.partner
}

func (m *Memory) Project() interfaces.ProjectRepository {
	return m.project
}

func (m *Memory) Task() interfaces.TaskRepository {
	return m.task
}

func (m *Memory) Activity() interfaces.ActivityRepository {
	return m.activity
}

func (m *Memory) Close() error {
	return nil
}
