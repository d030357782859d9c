// Package timetable holds the in-memory lesson registry and enforces the two scheduling
// invariants: a professor teaches at most one lesson per day and slot, and a classroom hosts
// at most one lesson per day and slot.
//
// A Registry is not safe for concurrent use; callers that share one must serialise access.
package timetable

import (
	"errors"

	"github.com/noah-isme/timetable-api/internal/models"
)

// UtilizationSlotsPerDay is the per-day capacity used by ClassroomUtilization. It is 8, not
// len(models.TimeSlots), and reports depend on that denominator.
const UtilizationSlotsPerDay = 8

// UtilizationWeekCapacity is the denominator of ClassroomUtilization.
const UtilizationWeekCapacity = 5 * UtilizationSlotsPerDay

var (
	ErrDuplicateProfessor = errors.New("professor already registered")
	ErrDuplicateClassroom = errors.New("classroom already registered")
	ErrDuplicateCourse    = errors.New("course already registered")
	ErrDuplicateLesson    = errors.New("lesson id already scheduled")
	ErrInvalidLessonID    = errors.New("lesson id must be positive")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrClassroomNotFound  = errors.New("classroom not found")
)

// Registry owns reference data and the scheduled lessons.
type Registry struct {
	professors []models.Professor
	classrooms []models.Classroom
	courses    []models.Course
	lessons    []models.Lesson
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddProfessor registers p, failing when its id is taken.
func (r *Registry) AddProfessor(p models.Professor) error {
	if _, ok := r.Professor(p.ID); ok {
		return ErrDuplicateProfessor
	}
	r.professors = append(r.professors, p)
	return nil
}

// AddClassroom registers c, failing when its room number is taken.
func (r *Registry) AddClassroom(c models.Classroom) error {
	if _, ok := r.Classroom(c.ID); ok {
		return ErrDuplicateClassroom
	}
	r.classrooms = append(r.classrooms, c)
	return nil
}

// AddCourse registers c, failing when its id is taken.
func (r *Registry) AddCourse(c models.Course) error {
	if _, ok := r.Course(c.ID); ok {
		return ErrDuplicateCourse
	}
	r.courses = append(r.courses, c)
	return nil
}

// ValidateLesson returns the first conflict l would cause, or nil. Professor conflicts are
// reported before classroom conflicts.
func (r *Registry) ValidateLesson(l models.Lesson) *models.LessonConflict {
	return r.validate(l, nil)
}

// validate ignores the lesson whose id is *exclude, if any, so a lesson never collides with
// itself.
func (r *Registry) validate(l models.Lesson, exclude *int) *models.LessonConflict {
	for _, existing := range r.lessons {
		if excluded(existing, exclude) {
			continue
		}
		if existing.ProfessorID == l.ProfessorID && existing.Day == l.Day && existing.Slot == l.Slot {
			return &models.LessonConflict{Type: models.ConflictProfessor, Lesson: existing}
		}
	}
	if conflict := r.classroomConflict(l.ClassroomID, l.Day, l.Slot, exclude); conflict != nil {
		return conflict
	}
	return nil
}

func (r *Registry) classroomConflict(classroomID string, day models.DayOfWeek, slot models.TimeSlot, exclude *int) *models.LessonConflict {
	for _, existing := range r.lessons {
		if excluded(existing, exclude) {
			continue
		}
		if existing.ClassroomID == classroomID && existing.Day == day && existing.Slot == slot {
			return &models.LessonConflict{Type: models.ConflictClassroom, Lesson: existing}
		}
	}
	return nil
}

// ScheduleLesson appends l when it breaks no invariant. On conflict nothing is stored and the
// conflict is returned. A reused lesson id yields ErrDuplicateLesson and an id below 1 yields
// ErrInvalidLessonID.
func (r *Registry) ScheduleLesson(l models.Lesson) (*models.LessonConflict, error) {
	if l.ID < 1 {
		return nil, ErrInvalidLessonID
	}
	if _, ok := r.Lesson(l.ID); ok {
		return nil, ErrDuplicateLesson
	}
	if conflict := r.ValidateLesson(l); conflict != nil {
		return conflict, nil
	}
	r.lessons = append(r.lessons, l)
	return nil, nil
}

// AddLesson is the boolean form of ScheduleLesson.
func (r *Registry) AddLesson(l models.Lesson) bool {
	conflict, err := r.ScheduleLesson(l)
	return err == nil && conflict == nil
}

// FindAvailableClassrooms lists registered classrooms with no lesson at day and slot, in
// registration order.
func (r *Registry) FindAvailableClassrooms(slot models.TimeSlot, day models.DayOfWeek) []string {
	booked := make(map[string]struct{})
	for _, l := range r.lessons {
		if l.Day == day && l.Slot == slot {
			booked[l.ClassroomID] = struct{}{}
		}
	}

	free := make([]string, 0, len(r.classrooms))
	for _, c := range r.classrooms {
		if _, taken := booked[c.ID]; !taken {
			free = append(free, c.ID)
		}
	}
	return free
}

// ProfessorSchedule returns the professor's lessons in storage order.
func (r *Registry) ProfessorSchedule(professorID int) []models.Lesson {
	result := make([]models.Lesson, 0)
	for _, l := range r.lessons {
		if l.ProfessorID == professorID {
			result = append(result, l)
		}
	}
	return result
}

// ClassroomSchedule returns the lessons held in classroomID in storage order.
func (r *Registry) ClassroomSchedule(classroomID string) []models.Lesson {
	result := make([]models.Lesson, 0)
	for _, l := range r.lessons {
		if l.ClassroomID == classroomID {
			result = append(result, l)
		}
	}
	return result
}

// ClassroomUtilization returns the share of UtilizationWeekCapacity taken by lessons in
// classroomID, as a percentage.
func (r *Registry) ClassroomUtilization(classroomID string) float64 {
	count := len(r.ClassroomSchedule(classroomID))
	return float64(count) / float64(UtilizationWeekCapacity) * 100
}

// MostPopularCourseType returns the course type with most scheduled lessons. Ties go to the
// type seen first while walking lessons in storage order. An empty schedule yields Lecture.
func (r *Registry) MostPopularCourseType() models.CourseType {
	counts := make(map[models.CourseType]int)
	var order []models.CourseType
	for _, l := range r.lessons {
		course, ok := r.Course(l.CourseID)
		if !ok {
			continue
		}
		if _, seen := counts[course.Type]; !seen {
			order = append(order, course.Type)
		}
		counts[course.Type]++
	}

	best := models.CourseTypeLecture
	bestCount := 0
	for _, t := range order {
		if counts[t] > bestCount {
			best, bestCount = t, counts[t]
		}
	}
	return best
}

// MoveLesson points lesson lessonID at classroomID. The lesson itself is excluded from the
// classroom check so moving into its current room succeeds.
func (r *Registry) MoveLesson(lessonID int, classroomID string) (*models.LessonConflict, error) {
	idx := r.lessonIndex(lessonID)
	if idx < 0 {
		return nil, ErrLessonNotFound
	}
	if _, ok := r.Classroom(classroomID); !ok {
		return nil, ErrClassroomNotFound
	}
	l := r.lessons[idx]
	if conflict := r.classroomConflict(classroomID, l.Day, l.Slot, &l.ID); conflict != nil {
		return conflict, nil
	}
	r.lessons[idx].ClassroomID = classroomID
	return nil, nil
}

// ReassignClassroom is the boolean form of MoveLesson.
func (r *Registry) ReassignClassroom(lessonID int, classroomID string) bool {
	conflict, err := r.MoveLesson(lessonID, classroomID)
	return err == nil && conflict == nil
}

// CancelLesson removes the lesson and reports whether it was present.
func (r *Registry) CancelLesson(lessonID int) bool {
	idx := r.lessonIndex(lessonID)
	if idx < 0 {
		return false
	}
	r.lessons = append(r.lessons[:idx], r.lessons[idx+1:]...)
	return true
}

// NextLessonID returns one more than the highest scheduled lesson id, or 1.
func (r *Registry) NextLessonID() int {
	maxID := 0
	for _, l := range r.lessons {
		if l.ID > maxID {
			maxID = l.ID
		}
	}
	return maxID + 1
}

func (r *Registry) Professor(id int) (models.Professor, bool) {
	for _, p := range r.professors {
		if p.ID == id {
			return p, true
		}
	}
	return models.Professor{}, false
}

func (r *Registry) Classroom(id string) (models.Classroom, bool) {
	for _, c := range r.classrooms {
		if c.ID == id {
			return c, true
		}
	}
	return models.Classroom{}, false
}

func (r *Registry) Course(id int) (models.Course, bool) {
	for _, c := range r.courses {
		if c.ID == id {
			return c, true
		}
	}
	return models.Course{}, false
}

func (r *Registry) Lesson(id int) (models.Lesson, bool) {
	if idx := r.lessonIndex(id); idx >= 0 {
		return r.lessons[idx], true
	}
	return models.Lesson{}, false
}

func (r *Registry) lessonIndex(id int) int {
	for i, l := range r.lessons {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) Professors() []models.Professor { return clone(r.professors) }
func (r *Registry) Classrooms() []models.Classroom { return clone(r.classrooms) }
func (r *Registry) Courses() []models.Course       { return clone(r.courses) }
func (r *Registry) Lessons() []models.Lesson       { return clone(r.lessons) }

// Snapshot copies the full registry state.
func (r *Registry) Snapshot() models.TimetableSnapshot {
	return models.TimetableSnapshot{
		Professors: r.Professors(),
		Classrooms: r.Classrooms(),
		Courses:    r.Courses(),
		Lessons:    r.Lessons(),
	}
}

// Restore builds a registry from a snapshot, re-checking every invariant. Lessons that
// conflict with earlier ones are rejected rather than silently dropped.
func Restore(snap models.TimetableSnapshot) (*Registry, error) {
	r := NewRegistry()
	for _, p := range snap.Professors {
		if err := r.AddProfessor(p); err != nil {
			return nil, err
		}
	}
	for _, c := range snap.Classrooms {
		if err := r.AddClassroom(c); err != nil {
			return nil, err
		}
	}
	for _, c := range snap.Courses {
		if err := r.AddCourse(c); err != nil {
			return nil, err
		}
	}
	for _, l := range snap.Lessons {
		conflict, err := r.ScheduleLesson(l)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			return nil, &models.LessonConflictError{Conflict: *conflict}
		}
	}
	return r, nil
}

func excluded(l models.Lesson, exclude *int) bool {
	return exclude != nil && l.ID == *exclude
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
