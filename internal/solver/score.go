package solver

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/campusplan/timetable-api/internal/dto"
)

// Diagnostic labels reported with unmet soft preferences.
const (
	constraintPreferMornings  = "Prefer Mornings"
	constraintAvoidBackToBack = "Avoid Back-to-Back Classes"
)

// Score grades a finished schedule from the assignments alone, independent
// of whatever objective value the optimizer reported. Each assignment earns
// +1 for a morning start and -1 otherwise; each consecutive pair of an
// instructor's classes earns +1 when separated by a gap and -1 when
// back-to-back. Every -1 is accompanied by a human-readable diagnostic.
func Score(assignments []dto.Assignment, input dto.SchedulingInput) (int, []dto.UnmetSoftConstraint) {
	return scoreWithIndex(assignments, input, indexProblem(input))
}

func scoreWithIndex(assignments []dto.Assignment, input dto.SchedulingInput, idx problemIndex) (int, []dto.UnmetSoftConstraint) {
	score := 0
	unmet := make([]dto.UnmetSoftConstraint, 0)
	cutoff := morningCutoff(input.TotalTimeslots)

	for _, a := range assignments {
		if uint32(a.StartSlot) < cutoff {
			score++
			continue
		}
		score--
		unmet = append(unmet, dto.UnmetSoftConstraint{
			ConstraintType: constraintPreferMornings,
			Description: fmt.Sprintf(
				"Course %d is scheduled at slot %d, which is not in the morning. Morning starts at 6 am (slot 0) and ends at 12 pm (slot 6)",
				a.CourseID, a.StartSlot,
			),
		})
	}

	known := lo.Filter(assignments, func(a dto.Assignment, _ int) bool {
		_, ok := idx.courseByID[a.CourseID]
		return ok
	})
	byInstructor := lo.GroupBy(known, func(a dto.Assignment) dto.InstructorID {
		return idx.courseByID[a.CourseID].InstructorID
	})

	// Instructors are visited in ascending id order and their assignments in
	// start order, so diagnostics come out identically for identical inputs.
	instructorIDs := lo.Keys(byInstructor)
	sort.Slice(instructorIDs, func(i, j int) bool { return instructorIDs[i] < instructorIDs[j] })

	for _, instructorID := range instructorIDs {
		taught := byInstructor[instructorID]
		sort.SliceStable(taught, func(i, j int) bool { return taught[i].StartSlot < taught[j].StartSlot })

		for i := 0; i+1 < len(taught); i++ {
			current, next := taught[i], taught[i+1]
			course := idx.courseByID[current.CourseID]
			currentEnd := current.StartSlot + dto.Timeslot(course.DurationSlots)
			if currentEnd != next.StartSlot {
				score++
				continue
			}
			score--
			unmet = append(unmet, dto.UnmetSoftConstraint{
				ConstraintType: constraintAvoidBackToBack,
				Description: fmt.Sprintf(
					"Instructor %d has back-to-back classes: Course %d (ends at slot %d) and Course %d (starts at slot %d).",
					instructorID, current.CourseID, currentEnd, next.CourseID, next.StartSlot,
				),
			})
		}
	}

	return score, unmet
}
