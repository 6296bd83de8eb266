package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/domain/entity"
	domainRepo "github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/internal/infrastructure/apiclient"
	"github.com/sangkips/billdesk/internal/infrastructure/repository"
	"github.com/sangkips/billdesk/internal/testutil/fakeapi"
	"go.uber.org/zap"
)

// harness wires the services against a fake billing API the same way the
// application does
type harness struct {
	api       *fakeapi.Server
	client    *apiclient.Client
	store     domainRepo.SessionStore
	validator *validation.Validator
	feed      *NotificationFeed
	guard     *SubmissionGuard
	session   *SessionService
	cache     *DataCache
	payments  *PaymentService
	transfers *TransferService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, repository.NewMemorySessionStore())
}

func newHarnessWithStore(t *testing.T, store domainRepo.SessionStore) *harness {
	t.Helper()
	log := zap.NewNop()
	h := &harness{
		api:       fakeapi.New(t),
		store:     store,
		validator: validation.New(),
		feed:      NewNotificationFeed(20),
		guard:     NewSubmissionGuard(),
	}
	h.client = apiclient.New(apiclient.Options{BaseURL: h.api.URL, Prefix: "/api", Logger: log})
	h.session = NewSessionService(h.client, store, h.validator, log, SessionOptions{
		StepUpUsernames: []string{"admin"},
		RefreshLeeway:   time.Second,
	})
	h.client.UseTokenSource(h.session)
	h.cache = NewDataCache(h.client, h.validator, h.feed, h.guard, log, DataCacheOptions{SearchDebounce: 20 * time.Millisecond})
	h.payments = NewPaymentService(h.client, h.cache, h.validator, h.feed, h.guard, log)
	h.transfers = NewTransferService(h.client, h.cache, h.validator, h.feed, h.guard, log)
	t.Cleanup(h.cache.Close)
	return h
}

var (
	adminUser    = map[string]any{"id": 1, "username": "admin", "full_name": "Admin User", "email": "admin@example.com", "role": "admin", "is_admin": true}
	employeeUser = map[string]any{"id": 2, "username": "employee1", "full_name": "Employee One", "email": "e1@example.com", "role": "dra", "is_admin": false}
)

// signIn logs the harness in as a DRA without OTP
func (h *harness) signIn(t *testing.T) {
	t.Helper()
	access := fakeapi.Token(t, "employee1", time.Now().Add(time.Hour))
	h.api.JSON(http.MethodPost, "/auth/login/", http.StatusOK, map[string]any{
		"access": access, "refresh": "refresh-1", "user": employeeUser,
	})
	state, err := h.session.Login(t.Context(), "employee1", "employee123")
	if err != nil || state != entity.SessionAuthenticated {
		t.Fatalf("sign in: state=%s err=%v", state, err)
	}
}

// notifications returns the feed oldest first
func (h *harness) notifications() []entity.Notification {
	items := h.feed.List()
	out := make([]entity.Notification, len(items))
	for i, n := range items {
		out[len(items)-1-i] = n
	}
	return out
}

func (h *harness) lastNotification(t *testing.T) entity.Notification {
	t.Helper()
	items := h.feed.List()
	if len(items) == 0 {
		t.Fatal("no notifications")
	}
	return items[0]
}
