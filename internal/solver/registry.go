package solver

import (
	"fmt"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/ilp"
)

// Candidate is a feasible placement bound to its binary decision variable.
// Duration is cached from the course so coverage checks never need a second
// lookup.
type Candidate struct {
	CourseID  dto.CourseID
	RoomID    dto.RoomID
	StartSlot dto.Timeslot
	Duration  uint32
	Var       ilp.VarID
}

type candidateKey struct {
	courseID  dto.CourseID
	roomID    dto.RoomID
	startSlot dto.Timeslot
}

// VariableRegistry owns the candidate list and the precomputed indexes the
// builders read. The candidate slice keeps enumeration order; every index
// holds positions into that slice, also in enumeration order, so iterating
// any of them is reproducible. Slot indexes answer "which candidates occupy
// room r (or instructor i) during slot k" without scanning the whole set.
type VariableRegistry struct {
	candidates      []Candidate
	byKey           map[candidateKey]int
	byCourse        map[dto.CourseID][]int
	byInstructor    map[dto.InstructorID][]int
	roomSlots       map[dto.RoomID][][]int
	instructorSlots map[dto.InstructorID][][]int
}

// NewVariableRegistry filters the input down to feasible placements and
// registers one binary variable per surviving candidate.
func NewVariableRegistry(model *ilp.Model, input dto.SchedulingInput, idx problemIndex) *VariableRegistry {
	r := &VariableRegistry{
		byKey:           make(map[candidateKey]int),
		byCourse:        make(map[dto.CourseID][]int),
		byInstructor:    make(map[dto.InstructorID][]int),
		roomSlots:       make(map[dto.RoomID][][]int),
		instructorSlots: make(map[dto.InstructorID][][]int),
	}

	horizon := int(input.TotalTimeslots)
	for _, p := range feasiblePlacements(input, idx) {
		course := idx.courseByID[p.courseID]
		v := model.NewBinaryVar(fmt.Sprintf("x_c%d_r%d_t%d", p.courseID, p.roomID, p.startSlot))
		pos := len(r.candidates)
		r.candidates = append(r.candidates, Candidate{
			CourseID:  p.courseID,
			RoomID:    p.roomID,
			StartSlot: p.startSlot,
			Duration:  course.DurationSlots,
			Var:       v,
		})
		r.byKey[candidateKey{p.courseID, p.roomID, p.startSlot}] = pos
		r.byCourse[p.courseID] = append(r.byCourse[p.courseID], pos)
		r.byInstructor[course.InstructorID] = append(r.byInstructor[course.InstructorID], pos)

		if r.roomSlots[p.roomID] == nil {
			r.roomSlots[p.roomID] = make([][]int, horizon)
		}
		if r.instructorSlots[course.InstructorID] == nil {
			r.instructorSlots[course.InstructorID] = make([][]int, horizon)
		}
		for k := uint32(0); k < course.DurationSlots; k++ {
			slot := int(p.startSlot) + int(k)
			r.roomSlots[p.roomID][slot] = append(r.roomSlots[p.roomID][slot], pos)
			r.instructorSlots[course.InstructorID][slot] = append(r.instructorSlots[course.InstructorID][slot], pos)
		}
	}
	return r
}

// Len returns the number of candidates.
func (r *VariableRegistry) Len() int { return len(r.candidates) }

// Empty reports whether pre-filtering eliminated every placement.
func (r *VariableRegistry) Empty() bool { return len(r.candidates) == 0 }

// Candidates returns all candidates in enumeration order.
func (r *VariableRegistry) Candidates() []Candidate { return r.candidates }

// Lookup resolves one triple to its candidate.
func (r *VariableRegistry) Lookup(courseID dto.CourseID, roomID dto.RoomID, startSlot dto.Timeslot) (Candidate, bool) {
	pos, ok := r.byKey[candidateKey{courseID, roomID, startSlot}]
	if !ok {
		return Candidate{}, false
	}
	return r.candidates[pos], true
}

// CourseCandidates returns every candidate for one course.
func (r *VariableRegistry) CourseCandidates(id dto.CourseID) []Candidate {
	return r.collect(r.byCourse[id])
}

// InstructorCandidates returns every candidate taught by one instructor.
func (r *VariableRegistry) InstructorCandidates(id dto.InstructorID) []Candidate {
	return r.collect(r.byInstructor[id])
}

// RoomSlotCandidates returns the candidates occupying a room during slot k.
func (r *VariableRegistry) RoomSlotCandidates(id dto.RoomID, k dto.Timeslot) []Candidate {
	slots := r.roomSlots[id]
	if int(k) >= len(slots) {
		return nil
	}
	return r.collect(slots[k])
}

// InstructorSlotCandidates returns the candidates an instructor teaches
// during slot k.
func (r *VariableRegistry) InstructorSlotCandidates(id dto.InstructorID, k dto.Timeslot) []Candidate {
	slots := r.instructorSlots[id]
	if int(k) >= len(slots) {
		return nil
	}
	return r.collect(slots[k])
}

func (r *VariableRegistry) collect(positions []int) []Candidate {
	if len(positions) == 0 {
		return nil
	}
	out := make([]Candidate, len(positions))
	for i, pos := range positions {
		out[i] = r.candidates[pos]
	}
	return out
}
