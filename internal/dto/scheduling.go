package dto

// RoomID identifies a physical room.
type RoomID uint32

// CourseID identifies a course offering.
type CourseID uint32

// InstructorID identifies an instructor.
type InstructorID uint32

// Timeslot indexes one discrete slot on the shared timeline, starting at 0.
type Timeslot uint32

// Room is a physical room with a fixed seat count.
type Room struct {
	ID       RoomID `json:"id"`
	Capacity uint32 `json:"capacity"`
}

// Course is one unit of teaching demand to be placed on the timeline. A
// course occupies DurationSlots consecutive slots in a single room.
type Course struct {
	ID               CourseID     `json:"id"`
	InstructorID     InstructorID `json:"instructorId"`
	DurationSlots    uint32       `json:"durationSlots" validate:"min=1"`
	RequiredCapacity uint32       `json:"requiredCapacity"`
}

// Instructor carries per-person availability restrictions.
type Instructor struct {
	ID               InstructorID `json:"id"`
	UnavailableSlots []Timeslot   `json:"unavailableSlots"`
}

// SchedulingInput is the complete problem statement for one solve. Empty
// rooms or courses are structurally valid and surface downstream as an
// empty candidate set rather than a validation error.
type SchedulingInput struct {
	Rooms          []Room       `json:"rooms" validate:"dive"`
	Courses        []Course     `json:"courses" validate:"dive"`
	Instructors    []Instructor `json:"instructors" validate:"dive"`
	TotalTimeslots uint32       `json:"totalTimeslots"`
}

// Assignment places one course in one room at one start slot.
type Assignment struct {
	CourseID  CourseID `json:"courseId"`
	RoomID    RoomID   `json:"roomId"`
	StartSlot Timeslot `json:"startSlot"`
}

// UnmetSoftConstraint reports a soft preference the final schedule violates.
type UnmetSoftConstraint struct {
	ConstraintType string `json:"constraintType"`
	Description    string `json:"description"`
}

// SchedulingOutput is the solved schedule plus its quality report. The score
// is recomputed from the decoded assignments, independent of the objective
// value the optimizer reports.
type SchedulingOutput struct {
	Assignments          []Assignment          `json:"assignments"`
	Score                int                   `json:"score"`
	UnmetSoftConstraints []UnmetSoftConstraint `json:"unmetSoftConstraints"`
}
