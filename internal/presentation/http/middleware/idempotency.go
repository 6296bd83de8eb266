package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
	"github.com/sangkips/billdesk/pkg/apperror"
)

// IdempotencyKeyHeader lets a dashboard tag a submission so a double click
// is rejected while the first one is still running
const IdempotencyKeyHeader = "Idempotency-Key"

// Guard is the in-flight registry shared with the services
type Guard interface {
	Acquire(key string) (release func(), err error)
}

// Idempotency answers 409 to a mutating request whose Idempotency-Key is
// already being processed
func Idempotency(guard Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		release, err := guard.Acquire("http:" + key)
		if err != nil {
			response.AbortWithError(c, apperror.ErrSubmissionInProgress)
			return
		}
		defer release()
		c.Next()
	}
}
