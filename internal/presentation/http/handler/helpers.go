package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/request"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
	"github.com/sangkips/billdesk/pkg/pagination"
)

// GetUsername extracts the signed-in username set by RequireSession
func GetUsername(c *gin.Context) string {
	return c.GetString("username")
}

// parseID reads a positive numeric path parameter, answering 400 otherwise
func parseID(c *gin.Context, name string) (entity.ID, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return entity.ID(id), true
}

// bindSearch reads ?q= and the page parameters
func bindSearch(c *gin.Context) (request.SearchQuery, bool) {
	var q request.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return q, false
	}
	return q, true
}

func pageParams(q request.SearchQuery) *pagination.PaginationParams {
	p := q.PaginationParams
	return &p
}
