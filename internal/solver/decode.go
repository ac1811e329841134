package solver

import (
	"sort"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/ilp"
)

// Valuations above this threshold count as selected. Binary variables come
// back as exact 0/1 from the engine; the slack tolerates backends that
// report near-integral floats.
const assignmentThreshold = 0.9

// decodeAssignments maps the winning valuation back onto candidates and
// fixes the output order: ascending by course, then room, then start slot.
func decodeAssignments(reg *VariableRegistry, vals ilp.Valuation) []dto.Assignment {
	out := make([]dto.Assignment, 0, len(reg.Candidates()))
	for _, cand := range reg.Candidates() {
		if vals.Value(cand.Var) > assignmentThreshold {
			out = append(out, dto.Assignment{
				CourseID:  cand.CourseID,
				RoomID:    cand.RoomID,
				StartSlot: cand.StartSlot,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CourseID != out[j].CourseID {
			return out[i].CourseID < out[j].CourseID
		}
		if out[i].RoomID != out[j].RoomID {
			return out[i].RoomID < out[j].RoomID
		}
		return out[i].StartSlot < out[j].StartSlot
	})
	return out
}
