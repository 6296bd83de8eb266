package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/request"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
)

// BillHandler serves the collection agent's assigned bills
type BillHandler struct {
	cache    *service.DataCache
	payments *service.PaymentService
}

func NewBillHandler(cache *service.DataCache, payments *service.PaymentService) *BillHandler {
	return &BillHandler{cache: cache, payments: payments}
}

// List refetches the assigned bills filtered by ?q= on ?field=
func (h *BillHandler) List(c *gin.Context) {
	var q request.MyBillsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	if err := h.cache.FetchUserInvoices(c.Request.Context(), q.Q, q.Field); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Assigned bills retrieved", h.cache.UserInvoices())
}

func (h *BillHandler) RecordPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var form validation.PaymentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	receipt, err := h.payments.RecordPayment(c.Request.Context(), id, form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Payment recorded", receipt)
}
