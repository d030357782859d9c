package dto

import "github.com/noah-isme/timetable-api/internal/models"

// CreateProfessorRequest registers a professor.
type CreateProfessorRequest struct {
	ID         int    `json:"id" validate:"required,min=1"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department"`
}

// CreateClassroomRequest registers a classroom by room number.
type CreateClassroomRequest struct {
	ID           string `json:"id" validate:"required"`
	Capacity     int    `json:"capacity" validate:"min=0"`
	HasProjector bool   `json:"has_projector"`
}

// CreateCourseRequest registers a course.
type CreateCourseRequest struct {
	ID   int    `json:"id" validate:"required,min=1"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=Lecture Seminar Lab Practice"`
}

// LessonRequest describes a lesson to validate or schedule. ID is optional on creation; the
// next free id is assigned when omitted.
type LessonRequest struct {
	ID          int    `json:"id" validate:"omitempty,min=1"`
	CourseID    int    `json:"course_id" validate:"required,min=1"`
	ProfessorID int    `json:"professor_id" validate:"required,min=1"`
	ClassroomID string `json:"classroom_id" validate:"required"`
	Day         string `json:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday"`
	Slot        string `json:"slot" validate:"required,oneof=8:30-10:00 10:10-11:40 12:10-13:40 13:50-15:20 15:30-17:00"`
}

// ToLesson converts the request into a lesson model.
func (r LessonRequest) ToLesson() models.Lesson {
	return models.Lesson{
		ID:          r.ID,
		CourseID:    r.CourseID,
		ProfessorID: r.ProfessorID,
		ClassroomID: r.ClassroomID,
		Day:         models.DayOfWeek(r.Day),
		Slot:        models.TimeSlot(r.Slot),
	}
}

// ReassignClassroomRequest moves a lesson into another classroom.
type ReassignClassroomRequest struct {
	ClassroomID string `json:"classroom_id" validate:"required"`
}

// AvailabilityQuery selects a day and slot.
type AvailabilityQuery struct {
	Day  string `form:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday"`
	Slot string `form:"slot" validate:"required,oneof=8:30-10:00 10:10-11:40 12:10-13:40 13:50-15:20 15:30-17:00"`
}

// ValidationResult reports whether a lesson could be scheduled.
type ValidationResult struct {
	Valid    bool                   `json:"valid"`
	Conflict *models.LessonConflict `json:"conflict,omitempty"`
}

// AvailableClassroomsResponse lists free rooms for a day and slot.
type AvailableClassroomsResponse struct {
	Day        models.DayOfWeek `json:"day"`
	Slot       models.TimeSlot  `json:"slot"`
	Classrooms []string         `json:"classrooms"`
}

// PopularCourseTypeResponse wraps the most scheduled course type.
type PopularCourseTypeResponse struct {
	Type models.CourseType `json:"type"`
}

// NextLessonIDResponse wraps the next lesson id.
type NextLessonIDResponse struct {
	ID int `json:"id"`
}

// ExportQuery selects the timetable export format.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
