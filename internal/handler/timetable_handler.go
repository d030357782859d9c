package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// TimetableHandler exposes the registry of professors, classrooms, courses and lessons.
type TimetableHandler struct {
	service *service.TimetableService
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// ListProfessors godoc
// @Summary List professors
// @Tags Professors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /professors [get]
func (h *TimetableHandler) ListProfessors(c *gin.Context) {
	response.OK(c, h.service.ListProfessors(c.Request.Context()))
}

// CreateProfessor godoc
// @Summary Register professor
// @Tags Professors
// @Accept json
// @Produce json
// @Param payload body dto.CreateProfessorRequest true "Professor payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /professors [post]
func (h *TimetableHandler) CreateProfessor(c *gin.Context) {
	var req dto.CreateProfessorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	professor, err := h.service.AddProfessor(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, professor)
}

// ProfessorLessons godoc
// @Summary List a professor's lessons
// @Tags Professors
// @Produce json
// @Param id path int true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /professors/{id}/lessons [get]
func (h *TimetableHandler) ProfessorLessons(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	response.OK(c, h.service.ProfessorSchedule(c.Request.Context(), id))
}

// ListClassrooms godoc
// @Summary List classrooms
// @Tags Classrooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *TimetableHandler) ListClassrooms(c *gin.Context) {
	response.OK(c, h.service.ListClassrooms(c.Request.Context()))
}

// CreateClassroom godoc
// @Summary Register classroom
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassroomRequest true "Classroom payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classrooms [post]
func (h *TimetableHandler) CreateClassroom(c *gin.Context) {
	var req dto.CreateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	classroom, err := h.service.AddClassroom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, classroom)
}

// AvailableClassrooms godoc
// @Summary Find classrooms free at a day and slot
// @Tags Classrooms
// @Produce json
// @Param day query string true "Day of week"
// @Param slot query string true "Time slot, e.g. 8:30-10:00"
// @Success 200 {object} response.Envelope
// @Router /classrooms/available [get]
func (h *TimetableHandler) AvailableClassrooms(c *gin.Context) {
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	result, err := h.service.AvailableClassrooms(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ClassroomUtilization godoc
// @Summary Classroom utilization percentage
// @Tags Classrooms
// @Produce json
// @Param id path string true "Room number"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/utilization [get]
func (h *TimetableHandler) ClassroomUtilization(c *gin.Context) {
	response.OK(c, h.service.ClassroomUtilization(c.Request.Context(), c.Param("id")))
}

// ClassroomLessons godoc
// @Summary List lessons held in a classroom
// @Tags Classrooms
// @Produce json
// @Param id path string true "Room number"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/lessons [get]
func (h *TimetableHandler) ClassroomLessons(c *gin.Context) {
	response.OK(c, h.service.ClassroomSchedule(c.Request.Context(), c.Param("id")))
}

// ListCourses godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *TimetableHandler) ListCourses(c *gin.Context) {
	response.OK(c, h.service.ListCourses(c.Request.Context()))
}

// CreateCourse godoc
// @Summary Register course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *TimetableHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.service.AddCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// PopularCourseType godoc
// @Summary Most scheduled course type
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/popular-type [get]
func (h *TimetableHandler) PopularCourseType(c *gin.Context) {
	response.OK(c, dto.PopularCourseTypeResponse{Type: h.service.MostPopularCourseType(c.Request.Context())})
}

// ListLessons godoc
// @Summary List lessons
// @Tags Lessons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *TimetableHandler) ListLessons(c *gin.Context) {
	response.OK(c, h.service.ListLessons(c.Request.Context()))
}

// CreateLesson godoc
// @Summary Schedule lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.LessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons [post]
func (h *TimetableHandler) CreateLesson(c *gin.Context) {
	var req dto.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.service.ScheduleLesson(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// ValidateLesson godoc
// @Summary Check a lesson against the timetable without storing it
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.LessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Router /lessons/validate [post]
func (h *TimetableHandler) ValidateLesson(c *gin.Context) {
	var req dto.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.ValidateLesson(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// NextLessonID godoc
// @Summary Preview the next lesson id
// @Tags Lessons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lessons/next-id [get]
func (h *TimetableHandler) NextLessonID(c *gin.Context) {
	response.OK(c, dto.NextLessonIDResponse{ID: h.service.NextLessonID(c.Request.Context())})
}

// ReassignClassroom godoc
// @Summary Move a lesson to another classroom
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param payload body dto.ReassignClassroomRequest true "Target classroom"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/classroom [patch]
func (h *TimetableHandler) ReassignClassroom(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReassignClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.service.ReassignClassroom(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lesson)
}

// CancelLesson godoc
// @Summary Cancel lesson
// @Tags Lessons
// @Param id path int true "Lesson ID"
// @Success 204
// @Router /lessons/{id} [delete]
func (h *TimetableHandler) CancelLesson(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	h.service.CancelLesson(c.Request.Context(), id)
	response.NoContent(c)
}

// Export godoc
// @Summary Download the timetable
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	payload, filename, contentType, err := h.service.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, contentType, payload)
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" must be an integer"))
		return 0, false
	}
	return id, true
}
