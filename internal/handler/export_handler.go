package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// ExportHandler publishes timetable documents behind signed links.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Publish godoc
// @Summary Publish the timetable as a downloadable file
// @Tags Timetable
// @Produce json
// @Param format query string false "csv or pdf"
// @Success 201 {object} response.Envelope
// @Router /timetable/exports [post]
func (h *ExportHandler) Publish(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	published, err := h.service.Publish(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, published)
}

// Download godoc
// @Summary Download a published timetable
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /timetable/exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	data, filename, contentType, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, contentType, data)
}
