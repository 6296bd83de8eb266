package handler

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/infrastructure/apiclient"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/request"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
	"github.com/sangkips/billdesk/pkg/apperror"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InvoiceHandler serves the admin invoice views
type InvoiceHandler struct {
	cache     *service.DataCache
	transfers *service.TransferService
}

func NewInvoiceHandler(cache *service.DataCache, transfers *service.TransferService) *InvoiceHandler {
	return &InvoiceHandler{cache: cache, transfers: transfers}
}

// List refetches the invoices for ?q= and returns a page of the snapshot
func (h *InvoiceHandler) List(c *gin.Context) {
	q, ok := bindSearch(c)
	if !ok {
		return
	}
	if err := h.cache.FetchInvoices(c.Request.Context(), q.Q); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoices retrieved", response.NewCollectionResponse(h.cache.Invoices(), pageParams(q)))
}

// QueueSearch feeds keystrokes into the debounced search. The result shows
// up in the next List or Snapshot call.
func (h *InvoiceHandler) QueueSearch(c *gin.Context) {
	var req request.QueueSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	h.cache.QueueInvoiceSearch(req.Q)
	response.Accepted(c, "Search queued")
}

// Snapshot returns the cached invoices without refetching
func (h *InvoiceHandler) Snapshot(c *gin.Context) {
	q, ok := bindSearch(c)
	if !ok {
		return
	}
	response.OK(c, "Invoices retrieved", response.NewCollectionResponse(h.cache.Invoices(), pageParams(q)))
}

func (h *InvoiceHandler) Create(c *gin.Context) {
	var form validation.InvoiceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.cache.AddInvoice(c.Request.Context(), form); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Invoice created", nil)
}

// Patch sends the changed fields of an invoice
func (h *InvoiceHandler) Patch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var patch entity.InvoicePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.cache.PatchInvoice(c.Request.Context(), id, patch); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice updated", nil)
}

func (h *InvoiceHandler) Assign(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req request.AssignInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.NewFieldError("dra_id", "Please select an employee"))
		return
	}

	if err := h.cache.AssignInvoice(c.Request.Context(), id, entity.ID(req.EmployeeID)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice assigned", nil)
}

// Import takes a multipart workbook upload and forwards it to the API
func (h *InvoiceHandler) Import(c *gin.Context) {
	file, err := c.FormFile(apiclient.ImportField)
	if err != nil {
		response.Error(c, apperror.NewFieldError("file", "Please select a file to import"))
		return
	}

	dir, err := os.MkdirTemp("", "billdesk-import-*")
	if err != nil {
		response.Error(c, apperror.Wrap(apperror.ErrInternalServer, err))
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		response.Error(c, apperror.Wrap(apperror.ErrInternalServer, err))
		return
	}

	if err := h.transfers.ImportInvoices(c.Request.Context(), path); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoices imported", nil)
}

// Export streams the payments workbook for ?start_date=&end_date=
func (h *InvoiceHandler) Export(c *gin.Context) {
	var q request.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	var buf bytes.Buffer
	name, err := h.transfers.StreamExport(c.Request.Context(), validation.ExportRange{
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	}, &buf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, name, xlsxContentType, buf.Bytes())
}
