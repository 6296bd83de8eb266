package response

import (
	"time"

	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/pkg/pagination"
)

// CollectionResponse is one page of a cached collection together with its
// load state
type CollectionResponse[T any] struct {
	Items      []T                    `json:"items"`
	Pagination *pagination.Pagination `json:"pagination"`
	Loading    bool                   `json:"loading"`
	Error      string                 `json:"error,omitempty"`
	Term       string                 `json:"term,omitempty"`
	NoResults  bool                   `json:"no_results"`
	Message    string                 `json:"message,omitempty"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

func NewCollectionResponse[T any](snap service.Snapshot[[]T], params *pagination.PaginationParams) *CollectionResponse[T] {
	page := pagination.Paginate(snap.Data, params)
	return &CollectionResponse[T]{
		Items:      page.Items,
		Pagination: page.Pagination,
		Loading:    snap.Loading,
		Error:      snap.Error,
		Term:       snap.Term,
		NoResults:  snap.NoResults,
		Message:    snap.Message,
		UpdatedAt:  snap.UpdatedAt,
	}
}

// SessionResponse is the session as the dashboard sees it
type SessionResponse struct {
	State   string      `json:"state"`
	Session interface{} `json:"session"`
}
