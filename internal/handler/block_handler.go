package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nextlevel-sports/academy-api/internal/service"
	appErrors "github.com/nextlevel-sports/academy-api/pkg/errors"
	"github.com/nextlevel-sports/academy-api/pkg/response"
)

// BlockHandler manages calendar block endpoints.
type BlockHandler struct {
	service *service.BlockService
}

// NewBlockHandler constructs handler.
func NewBlockHandler(svc *service.BlockService) *BlockHandler {
	return &BlockHandler{service: svc}
}

// List godoc
// @Summary List blocks over a date range
// @Tags Blocks
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (defaults to from)"
// @Param professionalId query string false "Filter by professional"
// @Success 200 {object} response.Envelope
// @Router /blocks [get]
func (h *BlockHandler) List(c *gin.Context) {
	from := c.Query("from")
	if from == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from is required"))
		return
	}
	blocks, err := h.service.ListRange(c.Request.Context(), from, c.Query("to"), c.Query("professionalId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, nil)
}

// CreateBatch godoc
// @Summary Create blocks over a date range
// @Tags Blocks
// @Accept json
// @Produce json
// @Param payload body service.CreateBlocksRequest true "Block batch payload"
// @Success 201 {object} response.Envelope
// @Router /blocks [post]
func (h *BlockHandler) CreateBatch(c *gin.Context) {
	var req service.CreateBlocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.service.CreateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"created": created})
}

// Delete godoc
// @Summary Delete a block record
// @Tags Blocks
// @Param id path string true "Block ID"
// @Success 204
// @Router /blocks/{id} [delete]
func (h *BlockHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
