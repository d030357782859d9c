package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

// RouterConfig carries the handlers and switches used to build the HTTP router.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool

	Logger  *zap.Logger
	Metrics *service.MetricsService
	// Auth guards mutating routes when non-nil.
	Auth *service.AuthService

	Timetable *TimetableHandler
	Exports   *ExportHandler
	Cars      *CarHandler
	Tasks     *TaskHandler
	Ops       *MetricsHandler
}

// NewRouter wires middleware and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(corsmiddleware.Options{AllowedOrigins: cfg.AllowedOrigins}))
	r.Use(middleware.Metrics(cfg.Metrics))

	if cfg.Ops != nil {
		r.GET("/health", cfg.Ops.Health)
		r.GET("/ready", cfg.Ops.Ready)
		r.GET("/metrics", cfg.Ops.Prometheus)
		r.GET("/metrics/summary", cfg.Ops.Summary)
	}

	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.Auth != nil {
		api.Use(middleware.GuardMutations(cfg.Auth, models.RoleAdmin))
	}
	api.Use(middleware.Audit(cfg.Logger))

	if h := cfg.Timetable; h != nil {
		api.GET("/professors", h.ListProfessors)
		api.POST("/professors", h.CreateProfessor)
		api.GET("/professors/:id/lessons", h.ProfessorLessons)

		api.GET("/classrooms", h.ListClassrooms)
		api.POST("/classrooms", h.CreateClassroom)
		api.GET("/classrooms/available", h.AvailableClassrooms)
		api.GET("/classrooms/:id/utilization", h.ClassroomUtilization)
		api.GET("/classrooms/:id/lessons", h.ClassroomLessons)

		api.GET("/courses", h.ListCourses)
		api.POST("/courses", h.CreateCourse)
		api.GET("/courses/popular-type", h.PopularCourseType)

		api.GET("/lessons", h.ListLessons)
		api.POST("/lessons", h.CreateLesson)
		api.POST("/lessons/validate", h.ValidateLesson)
		api.GET("/lessons/next-id", h.NextLessonID)
		api.PATCH("/lessons/:id/classroom", h.ReassignClassroom)
		api.DELETE("/lessons/:id", h.CancelLesson)

		api.GET("/timetable/export", h.Export)
	}

	if h := cfg.Exports; h != nil {
		api.POST("/timetable/exports", h.Publish)
		api.GET("/timetable/exports/:token", h.Download)
	}

	if h := cfg.Cars; h != nil {
		api.GET("/cars", h.Search)
		api.GET("/cars/facets", h.Facets)
		api.GET("/cars/featured", h.Featured)
		api.GET("/cars/newest", h.Newest)
		api.GET("/cars/price", h.Price)
	}

	if h := cfg.Tasks; h != nil {
		api.GET("/tasks", h.List)
		api.POST("/tasks", h.Create)
		api.GET("/tasks/stats", h.Stats)
		api.GET("/tasks/export", h.Export)
		api.POST("/tasks/import", h.Import)
		api.POST("/tasks/sort", h.Sort)
		api.DELETE("/tasks/completed", h.ClearCompleted)
		api.PUT("/tasks/:id", h.Update)
		api.DELETE("/tasks/:id", h.Delete)
		api.PATCH("/tasks/:id/toggle", h.Toggle)
	}

	return r
}
