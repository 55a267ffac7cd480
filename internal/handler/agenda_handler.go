package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nextlevel-sports/academy-api/internal/service"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
	"github.com/nextlevel-sports/academy-api/pkg/response"
)

// AgendaHandler manages calendar day views, availability and exports.
type AgendaHandler struct {
	agenda       *service.AgendaService
	availability *service.AvailabilityService
}

// NewAgendaHandler constructs handler.
func NewAgendaHandler(agenda *service.AgendaService, availability *service.AvailabilityService) *AgendaHandler {
	return &AgendaHandler{agenda: agenda, availability: availability}
}

// Day godoc
// @Summary Day view with lessons and blocks
// @Tags Agenda
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param professionalId query string false "Filter by professional"
// @Success 200 {object} response.Envelope
// @Router /agenda [get]
func (h *AgendaHandler) Day(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	view, err := h.agenda.Day(c.Request.Context(), date, c.Query("professionalId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Availability godoc
// @Summary List free slots for a professional on a date
// @Tags Agenda
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param professionalId query string true "Professional ID"
// @Param duration query int false "Lesson duration in minutes"
// @Param unitId query string false "Unit ID"
// @Success 200 {object} response.Envelope
// @Router /agenda/availability [get]
func (h *AgendaHandler) Availability(c *gin.Context) {
	date := c.Query("date")
	professionalID := c.Query("professionalId")
	if date == "" || professionalID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date and professionalId are required"))
		return
	}
	duration := 0
	if raw := c.Query("duration"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "duration must be an integer"))
			return
		}
		duration = parsed
	}
	slots, err := h.availability.ListFreeSlots(c.Request.Context(), professionalID, date, duration, c.Query("unitId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"date": date, "slots": slots}, nil)
}

// Export godoc
// @Summary Export a day's agenda as CSV or PDF
// @Tags Agenda
// @Produce text/csv,application/pdf
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param professionalId query string false "Filter by professional"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Router /agenda/export [get]
func (h *AgendaHandler) Export(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	file, err := h.agenda.ExportDay(c.Request.Context(), date, c.Query("professionalId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
