package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nextlevel-sports/academy-api/internal/models"
	"github.com/nextlevel-sports/academy-api/internal/service"
	"github.com/nextlevel-sports/academy-api/pkg/response"
)

// ReceivableHandler manages billing endpoints.
type ReceivableHandler struct {
	service *service.ReceivableService
}

// NewReceivableHandler constructs handler.
func NewReceivableHandler(svc *service.ReceivableService) *ReceivableHandler {
	return &ReceivableHandler{service: svc}
}

// List godoc
// @Summary List receivables
// @Tags Receivables
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param contractId query string false "Filter by contract"
// @Param status query string false "Filter by status (open/paid)"
// @Success 200 {object} response.Envelope
// @Router /receivables [get]
func (h *ReceivableHandler) List(c *gin.Context) {
	filter := models.ReceivableFilter{
		StudentID:  c.Query("studentId"),
		ContractID: c.Query("contractId"),
		Status:     c.Query("status"),
	}
	receivables, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receivables, nil)
}

type markPaidRequest struct {
	Date string `json:"date"`
}

// MarkPaid godoc
// @Summary Settle an open receivable
// @Tags Receivables
// @Accept json
// @Produce json
// @Param id path string true "Receivable ID"
// @Param payload body markPaidRequest false "Payment date, defaults to today"
// @Success 204
// @Router /receivables/{id}/pay [post]
func (h *ReceivableHandler) MarkPaid(c *gin.Context) {
	var req markPaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, err)
			return
		}
	}
	if err := h.service.MarkPaid(c.Request.Context(), c.Param("id"), req.Date); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
