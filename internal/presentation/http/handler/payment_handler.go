package handler

import (
	"bytes"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
)

// PaymentHandler serves payment history and totals
type PaymentHandler struct {
	cache     *service.DataCache
	transfers *service.TransferService
}

func NewPaymentHandler(cache *service.DataCache, transfers *service.TransferService) *PaymentHandler {
	return &PaymentHandler{cache: cache, transfers: transfers}
}

func (h *PaymentHandler) List(c *gin.Context) {
	q, ok := bindSearch(c)
	if !ok {
		return
	}
	if err := h.cache.FetchPayments(c.Request.Context(), q.Q); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payments retrieved", response.NewCollectionResponse(h.cache.Payments(), pageParams(q)))
}

// Report renders the payments matching ?q= as a workbook
func (h *PaymentHandler) Report(c *gin.Context) {
	q, ok := bindSearch(c)
	if !ok {
		return
	}
	if err := h.cache.FetchPayments(c.Request.Context(), q.Q); err != nil {
		response.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.transfers.WritePaymentsReport(&buf, h.cache.Payments().Data); err != nil {
		response.Error(c, err)
		return
	}
	name := "payments-report-" + time.Now().Format("2006-01-02") + ".xlsx"
	response.Attachment(c, name, xlsxContentType, buf.Bytes())
}

func (h *PaymentHandler) TodayTotals(c *gin.Context) {
	if err := h.cache.FetchTodayTotals(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Today's totals retrieved", h.cache.TodayTotals())
}
