package interfaces

import (
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned by every repository when a record does not exist
var ErrNotFound = goerr.New("not found")

// Repository defines the interface for data persistence
type Repository interface {
	RiskInfo() RiskInfoRepository
	Risk() RiskRepository
	Evaluation() EvaluationRepository
	Process() ProcessRepository
	ProcessData() ProcessDataRepository
	Partner() PartnerRepository
	Project() ProjectRepository
	Task() TaskRepository
	Activity() ActivityRepository

	Close() error
}
