package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nextlevel-sports/academy-api/internal/service"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
	"github.com/nextlevel-sports/academy-api/pkg/response"
)

// ContractHandler manages contract endpoints.
type ContractHandler struct {
	service *service.ContractService
}

// NewContractHandler constructs handler.
func NewContractHandler(svc *service.ContractService) *ContractHandler {
	return &ContractHandler{service: svc}
}

// Get godoc
// @Summary Get a contract with its weekly schedule
// @Tags Contracts
// @Produce json
// @Param id path string true "Contract ID"
// @Success 200 {object} response.Envelope
// @Router /contracts/{id} [get]
func (h *ContractHandler) Get(c *gin.Context) {
	contract, slots, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"contract": contract, "weekly_schedule": slots}, nil)
}

// ListByStudent godoc
// @Summary List a student's contracts
// @Tags Contracts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/contracts [get]
func (h *ContractHandler) ListByStudent(c *gin.Context) {
	contracts, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contracts, nil)
}

// Create godoc
// @Summary Create a contract with weekly schedule and installments
// @Tags Contracts
// @Accept json
// @Produce json
// @Param payload body service.ContractRequest true "Contract payload"
// @Success 201 {object} response.Envelope
// @Router /contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	var req service.ContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	contract, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contract)
}

// Update godoc
// @Summary Update a contract and its weekly schedule
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID"
// @Param payload body service.ContractRequest true "Contract payload"
// @Success 200 {object} response.Envelope
// @Router /contracts/{id} [put]
func (h *ContractHandler) Update(c *gin.Context) {
	var req service.ContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	contract, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contract, nil)
}

// Delete godoc
// @Summary Delete a contract and its dependent records
// @Tags Contracts
// @Param id path string true "Contract ID"
// @Success 204
// @Router /contracts/{id} [delete]
func (h *ContractHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Materialize godoc
// @Summary Expand the weekly schedule into concrete lessons
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID"
// @Param payload body service.MaterializeRequest false "Materialization options"
// @Success 200 {object} response.Envelope
// @Router /contracts/{id}/materialize [post]
func (h *ContractHandler) Materialize(c *gin.Context) {
	var req service.MaterializeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	result, err := h.service.Materialize(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
