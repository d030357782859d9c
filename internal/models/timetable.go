package models

import "fmt"

// CourseType classifies how a course is taught.
type CourseType string

const (
	CourseTypeLecture  CourseType = "Lecture"
	CourseTypeSeminar  CourseType = "Seminar"
	CourseTypeLab      CourseType = "Lab"
	CourseTypePractice CourseType = "Practice"
)

// DayOfWeek is one of the five teaching days.
type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
)

// TimeSlot is one of the five fixed daily lesson intervals.
type TimeSlot string

const (
	SlotFirst  TimeSlot = "8:30-10:00"
	SlotSecond TimeSlot = "10:10-11:40"
	SlotThird  TimeSlot = "12:10-13:40"
	SlotFourth TimeSlot = "13:50-15:20"
	SlotFifth  TimeSlot = "15:30-17:00"
)

// Days lists teaching days in week order.
var Days = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday}

// TimeSlots lists the daily slots in chronological order.
var TimeSlots = []TimeSlot{SlotFirst, SlotSecond, SlotThird, SlotFourth, SlotFifth}

// CourseTypes lists every course type.
var CourseTypes = []CourseType{CourseTypeLecture, CourseTypeSeminar, CourseTypeLab, CourseTypePractice}

// Valid reports whether d is a known teaching day.
func (d DayOfWeek) Valid() bool {
	for _, day := range Days {
		if day == d {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known time slot.
func (s TimeSlot) Valid() bool {
	for _, slot := range TimeSlots {
		if slot == s {
			return true
		}
	}
	return false
}

// Valid reports whether t is a known course type.
func (t CourseType) Valid() bool {
	for _, ct := range CourseTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// Professor teaches lessons. Immutable once registered.
type Professor struct {
	ID         int    `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Department string `db:"department" json:"department"`
}

// Classroom is identified by its room number.
type Classroom struct {
	ID           string `db:"id" json:"id"`
	Capacity     int    `db:"capacity" json:"capacity"`
	HasProjector bool   `db:"has_projector" json:"has_projector"`
}

// Course is the subject a lesson delivers.
type Course struct {
	ID   int        `db:"id" json:"id"`
	Name string     `db:"name" json:"name"`
	Type CourseType `db:"course_type" json:"type"`
}

// Lesson places a course with a professor in a classroom at a day and slot.
type Lesson struct {
	ID          int       `db:"id" json:"id"`
	CourseID    int       `db:"course_id" json:"course_id"`
	ProfessorID int       `db:"professor_id" json:"professor_id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	Day         DayOfWeek `db:"day_of_week" json:"day"`
	Slot        TimeSlot  `db:"time_slot" json:"slot"`
}

// ConflictType names the resource that is double-booked.
type ConflictType string

const (
	ConflictProfessor ConflictType = "PROFESSOR"
	ConflictClassroom ConflictType = "CLASSROOM"
)

// LessonConflict points at the scheduled lesson a candidate collides with.
type LessonConflict struct {
	Type   ConflictType `json:"type"`
	Lesson Lesson       `json:"lesson"`
}

// Message renders a human readable description of the conflict.
func (c LessonConflict) Message() string {
	switch c.Type {
	case ConflictProfessor:
		return fmt.Sprintf("professor %d already teaches lesson %d on %s at %s", c.Lesson.ProfessorID, c.Lesson.ID, c.Lesson.Day, c.Lesson.Slot)
	case ConflictClassroom:
		return fmt.Sprintf("classroom %s already hosts lesson %d on %s at %s", c.Lesson.ClassroomID, c.Lesson.ID, c.Lesson.Day, c.Lesson.Slot)
	default:
		return "lesson conflict"
	}
}

// LessonConflictError is returned when a lesson would break a scheduling invariant.
type LessonConflictError struct {
	Conflict LessonConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *LessonConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Conflict.Message()
}

// TimetableSnapshot is a point-in-time copy of the whole registry.
type TimetableSnapshot struct {
	Professors []Professor `json:"professors"`
	Classrooms []Classroom `json:"classrooms"`
	Courses    []Course    `json:"courses"`
	Lessons    []Lesson    `json:"lessons"`
}

// ClassroomUtilization reports how much of a room's weekly capacity is booked.
type ClassroomUtilization struct {
	ClassroomID string  `json:"classroom_id"`
	Lessons     int     `json:"lessons"`
	Percentage  float64 `json:"percentage"`
	Formatted   string  `json:"formatted"`
}
