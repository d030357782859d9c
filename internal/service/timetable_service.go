package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

const syncJobType = "timetable.sync"

type timetableStore interface {
	LoadSnapshot(ctx context.Context) (models.TimetableSnapshot, error)
	SaveSnapshot(ctx context.Context, snap models.TimetableSnapshot) error
}

// TimetableService serialises access to the lesson registry and persists it when a store is
// configured.
type TimetableService struct {
	mu       sync.RWMutex
	registry *timetable.Registry

	store     timetableStore
	queue     *jobs.Queue
	syncMu    sync.Mutex
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	renderers map[string]export.Renderer
}

// NewTimetableService builds the service. store may be nil, in which case the timetable lives
// in memory only.
func NewTimetableService(store timetableStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		registry:  timetable.NewRegistry(),
		store:     store,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		renderers: map[string]export.Renderer{
			"csv": export.NewCSVRenderer(),
			"pdf": export.NewPDFRenderer(),
		},
	}
}

// Start restores the registry from the store and starts the background sync queue.
func (s *TimetableService) Start(ctx context.Context, cfg jobs.QueueConfig) error {
	if s.store == nil {
		return nil
	}

	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load timetable: %w", err)
	}
	registry, err := timetable.Restore(snap)
	if err != nil {
		return fmt.Errorf("restore timetable: %w", err)
	}

	s.mu.Lock()
	s.registry = registry
	s.mu.Unlock()

	s.logger.Info("timetable restored",
		zap.Int("professors", len(snap.Professors)),
		zap.Int("classrooms", len(snap.Classrooms)),
		zap.Int("courses", len(snap.Courses)),
		zap.Int("lessons", len(snap.Lessons)),
	)

	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	s.queue = jobs.NewQueue("timetable-sync", s.handleSyncJob, cfg)
	s.queue.Start(ctx)
	return nil
}

// Close stops the sync queue and writes the final state.
func (s *TimetableService) Close(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if s.queue != nil {
		s.queue.Stop()
	}
	return s.Sync(ctx)
}

// Sync writes the current registry to the store.
func (s *TimetableService) Sync(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	snap := s.Snapshot()
	start := time.Now()
	err := s.store.SaveSnapshot(ctx, snap)
	s.metrics.ObserveSnapshotSync(err, time.Since(start))
	if err != nil {
		return fmt.Errorf("save timetable: %w", err)
	}
	return nil
}

func (s *TimetableService) handleSyncJob(ctx context.Context, job jobs.Job) error {
	s.logger.Debug("timetable sync", zap.String("job_id", job.ID), zap.Any("reason", job.Payload), zap.Int("attempt", job.Attempt))
	return s.Sync(ctx)
}

// requestSync queues a snapshot write. A full buffer is fine: a queued job reads the state
// when it runs and will include this change.
func (s *TimetableService) requestSync(reason string) {
	if s.queue == nil {
		return
	}
	err := s.queue.TryEnqueue(jobs.Job{ID: uuid.NewString(), Type: syncJobType, Payload: reason})
	switch {
	case err == nil:
	case errors.Is(err, jobs.ErrQueueFull):
		s.logger.Debug("timetable sync already pending", zap.String("reason", reason))
	default:
		s.logger.Warn("failed to queue timetable sync", zap.String("reason", reason), zap.Error(err))
	}
}

// Snapshot returns a copy of the registry contents.
func (s *TimetableService) Snapshot() models.TimetableSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Snapshot()
}

// AddProfessor registers a professor.
func (s *TimetableService) AddProfessor(ctx context.Context, req dto.CreateProfessorRequest) (*models.Professor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professor payload")
	}
	professor := models.Professor{ID: req.ID, Name: req.Name, Department: req.Department}

	s.mu.Lock()
	err := s.registry.AddProfessor(professor)
	s.mu.Unlock()
	if errors.Is(err, timetable.ErrDuplicateProfessor) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("professor %d already registered", req.ID))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add professor")
	}

	s.requestSync("professor added")
	return &professor, nil
}

// AddClassroom registers a classroom.
func (s *TimetableService) AddClassroom(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	classroom := models.Classroom{ID: req.ID, Capacity: req.Capacity, HasProjector: req.HasProjector}

	s.mu.Lock()
	err := s.registry.AddClassroom(classroom)
	s.mu.Unlock()
	if errors.Is(err, timetable.ErrDuplicateClassroom) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("classroom %s already registered", req.ID))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add classroom")
	}

	s.requestSync("classroom added")
	return &classroom, nil
}

// AddCourse registers a course.
func (s *TimetableService) AddCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := models.Course{ID: req.ID, Name: req.Name, Type: models.CourseType(req.Type)}

	s.mu.Lock()
	err := s.registry.AddCourse(course)
	s.mu.Unlock()
	if errors.Is(err, timetable.ErrDuplicateCourse) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course %d already registered", req.ID))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add course")
	}

	s.requestSync("course added")
	return &course, nil
}

// ListProfessors returns professors in registration order.
func (s *TimetableService) ListProfessors(ctx context.Context) []models.Professor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Professors()
}

// ListClassrooms returns classrooms in registration order.
func (s *TimetableService) ListClassrooms(ctx context.Context) []models.Classroom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Classrooms()
}

// ListCourses returns courses in registration order.
func (s *TimetableService) ListCourses(ctx context.Context) []models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Courses()
}

// ListLessons returns scheduled lessons in storage order.
func (s *TimetableService) ListLessons(ctx context.Context) []models.Lesson {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Lessons()
}

// ValidateLesson reports whether the lesson could be scheduled and, when not, what it
// collides with.
func (s *TimetableService) ValidateLesson(ctx context.Context, req dto.LessonRequest) (*dto.ValidationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	lesson := req.ToLesson()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkReferences(lesson); err != nil {
		return nil, err
	}
	conflict := s.registry.ValidateLesson(lesson)
	return &dto.ValidationResult{Valid: conflict == nil, Conflict: conflict}, nil
}

// ScheduleLesson adds a lesson, assigning the next free id when none is given.
func (s *TimetableService) ScheduleLesson(ctx context.Context, req dto.LessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	lesson := req.ToLesson()

	s.mu.Lock()
	if err := s.checkReferences(lesson); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if lesson.ID == 0 {
		lesson.ID = s.registry.NextLessonID()
	}
	conflict, err := s.registry.ScheduleLesson(lesson)
	s.mu.Unlock()

	if errors.Is(err, timetable.ErrDuplicateLesson) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("lesson %d already scheduled", lesson.ID))
	}
	if errors.Is(err, timetable.ErrInvalidLessonID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lesson id %d must be positive", lesson.ID))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule lesson")
	}
	if conflict != nil {
		s.metrics.RecordLessonOutcome("schedule", string(conflict.Type))
		return nil, s.wrapConflict(*conflict)
	}

	s.metrics.RecordLessonOutcome("schedule", "accepted")
	s.logger.Info("lesson scheduled",
		zap.Int("lesson_id", lesson.ID),
		zap.Int("professor_id", lesson.ProfessorID),
		zap.String("classroom_id", lesson.ClassroomID),
		zap.String("day", string(lesson.Day)),
		zap.String("slot", string(lesson.Slot)),
	)
	s.requestSync("lesson scheduled")
	return &lesson, nil
}

// ReassignClassroom moves a lesson into another registered classroom.
func (s *TimetableService) ReassignClassroom(ctx context.Context, lessonID int, req dto.ReassignClassroomRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reassignment payload")
	}

	s.mu.Lock()
	conflict, err := s.registry.MoveLesson(lessonID, req.ClassroomID)
	lesson, _ := s.registry.Lesson(lessonID)
	s.mu.Unlock()

	switch {
	case errors.Is(err, timetable.ErrLessonNotFound):
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lesson %d not found", lessonID))
	case errors.Is(err, timetable.ErrClassroomNotFound):
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("classroom %s not found", req.ClassroomID))
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign classroom")
	}
	if conflict != nil {
		s.metrics.RecordLessonOutcome("reassign", string(conflict.Type))
		return nil, s.wrapConflict(*conflict)
	}

	s.metrics.RecordLessonOutcome("reassign", "accepted")
	s.requestSync("classroom reassigned")
	return &lesson, nil
}

// CancelLesson removes a lesson. Cancelling an unknown lesson is a no-op.
func (s *TimetableService) CancelLesson(ctx context.Context, lessonID int) bool {
	s.mu.Lock()
	removed := s.registry.CancelLesson(lessonID)
	s.mu.Unlock()

	if removed {
		s.logger.Info("lesson cancelled", zap.Int("lesson_id", lessonID))
		s.requestSync("lesson cancelled")
	}
	return removed
}

// NextLessonID previews the id the next lesson without one would receive.
func (s *TimetableService) NextLessonID(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.NextLessonID()
}

// AvailableClassrooms lists rooms free at the requested day and slot.
func (s *TimetableService) AvailableClassrooms(ctx context.Context, query dto.AvailabilityQuery) (*dto.AvailableClassroomsResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	day, slot := models.DayOfWeek(query.Day), models.TimeSlot(query.Slot)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return &dto.AvailableClassroomsResponse{
		Day:        day,
		Slot:       slot,
		Classrooms: s.registry.FindAvailableClassrooms(slot, day),
	}, nil
}

// ProfessorSchedule returns the professor's lessons. Unknown professors have none.
func (s *TimetableService) ProfessorSchedule(ctx context.Context, professorID int) []models.Lesson {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.ProfessorSchedule(professorID)
}

// ClassroomSchedule returns the lessons held in a classroom.
func (s *TimetableService) ClassroomSchedule(ctx context.Context, classroomID string) []models.Lesson {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.ClassroomSchedule(classroomID)
}

// ClassroomUtilization reports the booked share of a classroom's weekly capacity.
func (s *TimetableService) ClassroomUtilization(ctx context.Context, classroomID string) models.ClassroomUtilization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pct := s.registry.ClassroomUtilization(classroomID)
	return models.ClassroomUtilization{
		ClassroomID: classroomID,
		Lessons:     len(s.registry.ClassroomSchedule(classroomID)),
		Percentage:  pct,
		Formatted:   fmt.Sprintf("%.2f%%", pct),
	}
}

// MostPopularCourseType returns the course type with the most lessons.
func (s *TimetableService) MostPopularCourseType(ctx context.Context) models.CourseType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.MostPopularCourseType()
}

// Export renders the lessons as a CSV or PDF document. An empty format means csv.
func (s *TimetableService) Export(ctx context.Context, query dto.ExportQuery) ([]byte, string, string, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export format")
	}
	format := query.Format
	if format == "" {
		format = "csv"
	}
	renderer := s.renderers[format]

	data := s.exportDataset()
	payload, err := renderer.Render(data)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	filename := fmt.Sprintf("timetable_%s.%s", time.Now().UTC().Format("20060102"), renderer.Extension())
	return payload, filename, renderer.ContentType(), nil
}

func (s *TimetableService) exportDataset() export.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := export.Dataset{
		Title:   "Timetable",
		Headers: []string{"Lesson", "Day", "Slot", "Course", "Type", "Professor", "Classroom"},
	}
	lessons := s.registry.Lessons()
	for _, day := range models.Days {
		for _, slot := range models.TimeSlots {
			for _, l := range lessons {
				if l.Day != day || l.Slot != slot {
					continue
				}
				course, _ := s.registry.Course(l.CourseID)
				professor, _ := s.registry.Professor(l.ProfessorID)
				courseName, professorName := course.Name, professor.Name
				if courseName == "" {
					courseName = strconv.Itoa(l.CourseID)
				}
				if professorName == "" {
					professorName = strconv.Itoa(l.ProfessorID)
				}
				data.Rows = append(data.Rows, []string{
					strconv.Itoa(l.ID), string(day), string(slot), courseName, string(course.Type), professorName, l.ClassroomID,
				})
			}
		}
	}
	return data
}

// checkReferences requires the lesson's professor, classroom and course to be registered.
// Callers must hold s.mu.
func (s *TimetableService) checkReferences(l models.Lesson) error {
	if _, ok := s.registry.Professor(l.ProfessorID); !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("professor %d is not registered", l.ProfessorID))
	}
	if _, ok := s.registry.Classroom(l.ClassroomID); !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("classroom %s is not registered", l.ClassroomID))
	}
	if _, ok := s.registry.Course(l.CourseID); !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %d is not registered", l.CourseID))
	}
	return nil
}

func (s *TimetableService) wrapConflict(conflict models.LessonConflict) error {
	domainErr := &models.LessonConflictError{Conflict: conflict}
	wrapped := appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("schedule conflict: %s", conflict.Message()))
	return appErrors.WithDetails(wrapped, conflict)
}
