// Package solver turns a scheduling input into a solved timetable: it
// enumerates feasible placements, builds a 0-1 model around them, hands the
// model to an optimization engine and decodes the winning assignment into a
// schedule with an independently recomputed quality score.
package solver

import (
	"sort"

	"github.com/samber/lo"

	"github.com/campusplan/timetable-api/internal/dto"
)

// placement is a candidate (course, room, startSlot) triple before a
// decision variable is attached.
type placement struct {
	courseID  dto.CourseID
	roomID    dto.RoomID
	startSlot dto.Timeslot
}

// problemIndex holds the id lookups shared by the candidate filter, the
// constraint builder and the score pass. instructorOrder lists the distinct
// instructors referenced by courses in ascending id order, so every pass
// that walks instructors emits in a reproducible order.
type problemIndex struct {
	courseByID              map[dto.CourseID]dto.Course
	instructorByID          map[dto.InstructorID]dto.Instructor
	coursesByInstructor     map[dto.InstructorID][]dto.CourseID
	unavailableByInstructor map[dto.InstructorID]map[dto.Timeslot]struct{}
	instructorOrder         []dto.InstructorID
}

func indexProblem(input dto.SchedulingInput) problemIndex {
	idx := problemIndex{
		courseByID:          lo.KeyBy(input.Courses, func(c dto.Course) dto.CourseID { return c.ID }),
		instructorByID:      lo.KeyBy(input.Instructors, func(i dto.Instructor) dto.InstructorID { return i.ID }),
		coursesByInstructor: make(map[dto.InstructorID][]dto.CourseID),
		unavailableByInstructor: lo.SliceToMap(input.Instructors, func(i dto.Instructor) (dto.InstructorID, map[dto.Timeslot]struct{}) {
			slots := make(map[dto.Timeslot]struct{}, len(i.UnavailableSlots))
			for _, s := range i.UnavailableSlots {
				slots[s] = struct{}{}
			}
			return i.ID, slots
		}),
	}
	for _, course := range input.Courses {
		if _, seen := idx.coursesByInstructor[course.InstructorID]; !seen {
			idx.instructorOrder = append(idx.instructorOrder, course.InstructorID)
		}
		idx.coursesByInstructor[course.InstructorID] = append(idx.coursesByInstructor[course.InstructorID], course.ID)
	}
	sort.Slice(idx.instructorOrder, func(i, j int) bool {
		return idx.instructorOrder[i] < idx.instructorOrder[j]
	})
	return idx
}

// feasiblePlacements enumerates every triple surviving the hard pre-checks:
// the course fits inside the horizon, the room seats it, and the instructor
// is on the roster and free for the whole occupied interval. Enumeration
// runs courses, then rooms, then slots, which fixes variable numbering for
// identical inputs.
func feasiblePlacements(input dto.SchedulingInput, idx problemIndex) []placement {
	var out []placement
	for _, course := range input.Courses {
		for _, room := range input.Rooms {
			for slot := uint32(0); slot < input.TotalTimeslots; slot++ {
				if placementPossible(course, room, dto.Timeslot(slot), input, idx) {
					out = append(out, placement{
						courseID:  course.ID,
						roomID:    room.ID,
						startSlot: dto.Timeslot(slot),
					})
				}
			}
		}
	}
	return out
}

func placementPossible(course dto.Course, room dto.Room, start dto.Timeslot, input dto.SchedulingInput, idx problemIndex) bool {
	if uint64(start)+uint64(course.DurationSlots) > uint64(input.TotalTimeslots) {
		return false
	}
	if room.Capacity < course.RequiredCapacity {
		return false
	}
	unavailable, onRoster := idx.unavailableByInstructor[course.InstructorID]
	if !onRoster {
		return false
	}
	for k := uint32(0); k < course.DurationSlots; k++ {
		if _, busy := unavailable[start+dto.Timeslot(k)]; busy {
			return false
		}
	}
	return true
}
