package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// CarHandler serves the showroom catalog.
type CarHandler struct {
	service *service.CarCatalogService
}

// NewCarHandler constructs handler.
func NewCarHandler(svc *service.CarCatalogService) *CarHandler {
	return &CarHandler{service: svc}
}

// Search godoc
// @Summary Search cars
// @Tags Cars
// @Produce json
// @Param year query string false "Model year"
// @Param style query string false "Body style"
// @Param make query string false "Make"
// @Param model query string false "Model"
// @Param condition query string false "new or used"
// @Param price query int false "Maximum price"
// @Success 200 {object} response.Envelope
// @Router /cars [get]
func (h *CarHandler) Search(c *gin.Context) {
	var filter models.CarFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	cars, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cars, map[string]interface{}{"total": len(cars)})
}

// Facets godoc
// @Summary Distinct values for search selectors
// @Tags Cars
// @Produce json
// @Param make query string false "Selected make"
// @Param style query string false "Selected style"
// @Param condition query string false "Selected condition"
// @Success 200 {object} response.Envelope
// @Router /cars/facets [get]
func (h *CarHandler) Facets(c *gin.Context) {
	var query dto.DependentFacetsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	if query.Make != "" || query.Style != "" || query.Condition != "" {
		facets, err := h.service.DependentFacets(c.Request.Context(), query)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, facets)
		return
	}
	facets, err := h.service.Facets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, facets)
}

// Featured godoc
// @Summary First cars of the catalog
// @Tags Cars
// @Produce json
// @Param count query int false "How many cars (default 8)"
// @Success 200 {object} response.Envelope
// @Router /cars/featured [get]
func (h *CarHandler) Featured(c *gin.Context) {
	var query dto.CountQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid count"))
		return
	}
	cars, err := h.service.Featured(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cars)
}

// Newest godoc
// @Summary Newest cars first
// @Tags Cars
// @Produce json
// @Param count query int false "How many cars (default 8)"
// @Success 200 {object} response.Envelope
// @Router /cars/newest [get]
func (h *CarHandler) Newest(c *gin.Context) {
	var query dto.CountQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid count"))
		return
	}
	cars, err := h.service.Newest(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cars)
}

// Price godoc
// @Summary Price of a model
// @Tags Cars
// @Produce json
// @Param model query string true "Model name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cars/price [get]
func (h *CarHandler) Price(c *gin.Context) {
	query := dto.ModelPriceQuery{Model: c.Query("model")}
	price, err := h.service.PriceForModel(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, price)
}
