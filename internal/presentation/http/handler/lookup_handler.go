package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
)

// LookupHandler serves the pick lists of the invoice forms
type LookupHandler struct {
	cache *service.DataCache
}

func NewLookupHandler(cache *service.DataCache) *LookupHandler {
	return &LookupHandler{cache: cache}
}

// Employees lists the users invoices can be assigned to
func (h *LookupHandler) Employees(c *gin.Context) {
	employees, err := h.cache.ListEmployees(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Employees retrieved", employees)
}

func (h *LookupHandler) Routes(c *gin.Context) {
	routes, err := h.cache.FetchRoutes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Routes retrieved", routes)
}

func (h *LookupHandler) Outlets(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	outlets, err := h.cache.FetchOutlets(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Outlets retrieved", outlets)
}
