package solver

import (
	"fmt"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/ilp"
)

// buildHardConstraints emits the feasibility rows: every course placed
// exactly once, and no room or instructor hosting two courses in the same
// slot. A course whose candidate list came out empty still gets its
// exactly-once row; the empty sum can never reach 1, which is how an
// individually unplaceable course surfaces as infeasibility.
func buildHardConstraints(model *ilp.Model, reg *VariableRegistry, input dto.SchedulingInput) {
	for _, course := range input.Courses {
		model.AddConstraint(ilp.Constraint{
			Name: fmt.Sprintf("course %d scheduled once", course.ID),
			Expr: varSum(reg.CourseCandidates(course.ID)),
			Op:   ilp.OpEq,
			RHS:  1,
		})
	}

	for _, room := range input.Rooms {
		for k := uint32(0); k < input.TotalTimeslots; k++ {
			expr := varSum(reg.RoomSlotCandidates(room.ID, dto.Timeslot(k)))
			if len(expr) < 2 {
				continue
			}
			model.AddConstraint(ilp.Constraint{
				Name: fmt.Sprintf("room %d free at slot %d", room.ID, k),
				Expr: expr,
				Op:   ilp.OpLtEq,
				RHS:  1,
			})
		}
	}

	for _, instructor := range input.Instructors {
		for k := uint32(0); k < input.TotalTimeslots; k++ {
			expr := varSum(reg.InstructorSlotCandidates(instructor.ID, dto.Timeslot(k)))
			if len(expr) < 2 {
				continue
			}
			model.AddConstraint(ilp.Constraint{
				Name: fmt.Sprintf("instructor %d free at slot %d", instructor.ID, k),
				Expr: expr,
				Op:   ilp.OpLtEq,
				RHS:  1,
			})
		}
	}
}

// penaltyVariables creates one auxiliary binary variable per (instructor,
// slot boundary) pair, mirroring the adjacency penalty term of the
// objective. Without linking the variables float free of the rest of the
// model, so minimizing cost always parks them at zero and the objective is
// shaped by the morning term alone; see SolverConfig.LinkBackToBackPenalties
// for the coupled variant, which adds
//
//	startsAt(k+1) + endsAt(k) - penalty <= 1
//
// so the penalty is charged whenever an instructor teaches into slot k and
// again from slot k+1.
func penaltyVariables(model *ilp.Model, reg *VariableRegistry, input dto.SchedulingInput, idx problemIndex, link bool) []ilp.VarID {
	if input.TotalTimeslots <= 1 {
		return nil
	}

	var penalties []ilp.VarID
	for _, instructorID := range idx.instructorOrder {
		cands := reg.InstructorCandidates(instructorID)
		for k := uint32(0); k+1 < input.TotalTimeslots; k++ {
			p := model.NewBinaryVar(fmt.Sprintf("btb_i%d_k%d", instructorID, k))
			penalties = append(penalties, p)
			if !link {
				continue
			}

			expr := ilp.LinearExpr{}
			for _, cand := range cands {
				if uint32(cand.StartSlot) == k+1 {
					expr = append(expr, ilp.Term{Var: cand.Var, Coef: 1})
				}
				if uint32(cand.StartSlot)+cand.Duration-1 == k {
					expr = append(expr, ilp.Term{Var: cand.Var, Coef: 1})
				}
			}
			if len(expr) == 0 {
				continue
			}
			expr = append(expr, ilp.Term{Var: p, Coef: -1})
			model.AddConstraint(ilp.Constraint{
				Name: fmt.Sprintf("instructor %d adjacency at boundary %d", instructorID, k),
				Expr: expr,
				Op:   ilp.OpLtEq,
				RHS:  1,
			})
		}
	}
	return penalties
}

func varSum(cands []Candidate) ilp.LinearExpr {
	if len(cands) == 0 {
		return nil
	}
	expr := make(ilp.LinearExpr, len(cands))
	for i, cand := range cands {
		expr[i] = ilp.Term{Var: cand.Var, Coef: 1}
	}
	return expr
}
