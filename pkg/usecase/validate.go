package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
)

// ValidationIssue represents a single validation issue found during DB consistency check
type ValidationIssue struct {
	RiskID    int64
	ProcessID int64
	Field     string
	Message   string
	Expected  string
	Actual    string
}

// ValidationResult holds the results of DB validation
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// AddIssue adds a validation issue to the result
func (r *ValidationResult) AddIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
}

// ValidateDB recomputes the derived fields of every risk and process and
// reports the stored values that differ. It does NOT modify any data; a
// review sweep repairs risk fields, a catalog write repairs process ranks.
func (uc *UseCases) ValidateDB(ctx context.Context) (*ValidationResult, error) {
	result := &ValidationResult{}

	if err := uc.validateRisks(ctx, result); err != nil {
		return nil, err
	}
	if err := uc.validateProcesses(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *UseCases) validateRisks(ctx context.Context, result *ValidationResult) error {
	now := uc.clock()

	risks, err := uc.repo.Risk().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list risks")
	}
	ranks := model.RankRisks(risks, now)

	for _, risk := range risks {
		evals, err := uc.repo.Evaluation().ListByRisk(ctx, risk.ID)
		if err != nil {
			return goerr.Wrap(err, "failed to list evaluations", goerr.V(RiskIDKey, risk.ID))
		}
		task, err := uc.repo.Task().GetTreatment(ctx, risk.ID)
		if err != nil {
			return goerr.Wrap(err, "failed to get treatment task", goerr.V(RiskIDKey, risk.ID))
		}
		var children []*model.Task
		if task != nil {
			children, err = uc.repo.Task().ListByParent(ctx, task.ID)
			if err != nil {
				return goerr.Wrap(err, "failed to list subtasks", goerr.V(TaskIDKey, task.ID))
			}
		}

		d := model.Derive(risk, evals, task, children, uc.riskConfig.ScoringPolicy, now)

		check := func(field string, expected, actual string) {
			if expected == actual {
				return
			}
			result.AddIssue(ValidationIssue{
				RiskID:   risk.ID,
				Field:    field,
				Message:  fmt.Sprintf("stored %s of risk %d is stale", field, risk.ID),
				Expected: expected,
				Actual:   actual,
			})
		}
		check("threshold_value", strconv.Itoa(d.ThresholdValue), strconv.Itoa(risk.ThresholdValue))
		check("latest_level", strconv.Itoa(d.LatestLevel), strconv.Itoa(risk.LatestLevel))
		check("status", d.Status.String(), risk.Status.String())
		check("stage", d.Stage.String(), risk.Stage.String())
		check("priority", strconv.Itoa(ranks[risk.ID]), strconv.Itoa(risk.Priority))

		if d.Treatment != model.TreatmentKeep {
			result.AddIssue(ValidationIssue{
				RiskID:   risk.ID,
				Field:    "treatment",
				Message:  fmt.Sprintf("treatment task of risk %d is out of step", risk.ID),
				Expected: d.Treatment.String(),
				Actual:   model.TreatmentKeep.String(),
			})
		}
	}
	return nil
}

func (uc *UseCases) validateProcesses(ctx context.Context, result *ValidationResult) error {
	var owners []model.Owner
	for _, unit := range uc.units.List() {
		owners = append(owners, model.UnitOwner(unit.ID))
	}
	projects, err := uc.repo.Project().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list projects")
	}
	for _, p := range projects {
		if !p.IsRiskTreatment {
			owners = append(owners, model.ProjectOwner(p.ID))
		}
	}

	for _, owner := range owners {
		graph, processes, err := uc.Process.Graph(ctx, owner)
		if err != nil {
			return err
		}
		ranks := graph.Rank(uc.riskConfig.Sequence)

		for _, p := range processes {
			rank := ranks[p.ID]
			if rank.Sequence != p.Sequence {
				result.AddIssue(ValidationIssue{
					ProcessID: p.ID,
					Field:     "sequence",
					Message:   fmt.Sprintf("stored sequence of process %q is stale", p.Name),
					Expected:  strconv.Itoa(rank.Sequence),
					Actual:    strconv.Itoa(p.Sequence),
				})
			}
			if rank.IsCore != p.IsCore {
				result.AddIssue(ValidationIssue{
					ProcessID: p.ID,
					Field:     "is_core",
					Message:   fmt.Sprintf("stored core flag of process %q is stale", p.Name),
					Expected:  strconv.FormatBool(rank.IsCore),
					Actual:    strconv.FormatBool(p.IsCore),
				})
			}
		}
	}
	return nil
}
