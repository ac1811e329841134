package solver

import (
	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/ilp"
)

// Soft preference weights. Morning placements are worth twice what an
// adjacency costs, so the optimizer trades one back-to-back pair for two
// morning slots.
const (
	morningPreferenceWeight = 1.0
	backToBackPenaltyWeight = 0.5
)

// morningCutoff is the first slot no longer counted as morning: the front
// half of the horizon, rounded down.
func morningCutoff(totalTimeslots uint32) uint32 {
	return totalTimeslots / 2
}

// buildObjective maximizes morning placements minus adjacency penalties.
// Terms follow candidate enumeration order, then penalty creation order.
func buildObjective(model *ilp.Model, reg *VariableRegistry, input dto.SchedulingInput, penalties []ilp.VarID) {
	cutoff := morningCutoff(input.TotalTimeslots)

	expr := ilp.LinearExpr{}
	for _, cand := range reg.Candidates() {
		if uint32(cand.StartSlot) < cutoff {
			expr = append(expr, ilp.Term{Var: cand.Var, Coef: morningPreferenceWeight})
		}
	}
	for _, p := range penalties {
		expr = append(expr, ilp.Term{Var: p, Coef: -backToBackPenaltyWeight})
	}

	model.SetObjective(ilp.Objective{Sense: ilp.Maximize, Expr: expr})
}
