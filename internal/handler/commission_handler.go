package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nextlevel-sports/academy-api/internal/service"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
	"github.com/nextlevel-sports/academy-api/pkg/response"
)

// CommissionHandler manages commission endpoints.
type CommissionHandler struct {
	service *service.CommissionService
}

// NewCommissionHandler constructs handler.
func NewCommissionHandler(svc *service.CommissionService) *CommissionHandler {
	return &CommissionHandler{service: svc}
}

// Report godoc
// @Summary Compute commissions for the previous calendar month
// @Tags Commissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /commissions/report [get]
func (h *CommissionHandler) Report(c *gin.Context) {
	report, err := h.service.ComputePreviousMonth(c.Request.Context(), time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ListRules godoc
// @Summary List commission rules
// @Tags Commissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /commissions/rules [get]
func (h *CommissionHandler) ListRules(c *gin.Context) {
	rules, err := h.service.ListRules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// UpsertRule godoc
// @Summary Create or replace a professional's commission rule
// @Tags Commissions
// @Accept json
// @Produce json
// @Param payload body service.CommissionRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /commissions/rules [put]
func (h *CommissionHandler) UpsertRule(c *gin.Context) {
	var req service.CommissionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.service.UpsertRule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// DeleteRule godoc
// @Summary Delete a commission rule
// @Tags Commissions
// @Param id path string true "Rule ID"
// @Success 204
// @Router /commissions/rules/{id} [delete]
func (h *CommissionHandler) DeleteRule(c *gin.Context) {
	if err := h.service.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
