package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/request"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
	"github.com/sangkips/billdesk/pkg/apperror"
)

// ChequeHandler serves the cheque review queue
type ChequeHandler struct {
	cache *service.DataCache
}

func NewChequeHandler(cache *service.DataCache) *ChequeHandler {
	return &ChequeHandler{cache: cache}
}

func (h *ChequeHandler) List(c *gin.Context) {
	q, ok := bindSearch(c)
	if !ok {
		return
	}
	if err := h.cache.FetchChequeHistory(c.Request.Context(), q.Q); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cheque history retrieved", response.NewCollectionResponse(h.cache.ChequeHistory(), pageParams(q)))
}

func (h *ChequeHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req request.UpdateChequeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.NewFieldError("cheque_status", "Cheque status is required"))
		return
	}

	if err := h.cache.UpdateChequeStatus(c.Request.Context(), id, enum.ChequeStatus(req.ChequeStatus)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cheque status updated", nil)
}

func (h *ChequeHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.cache.DeleteCheque(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cheque payment deleted", nil)
}
