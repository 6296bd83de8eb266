package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk/internal/app"
	"github.com/sangkips/billdesk/internal/config"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/internal/presentation/http/handler"
	"github.com/sangkips/billdesk/internal/presentation/http/middleware"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Session      *handler.SessionHandler
	Invoice      *handler.InvoiceHandler
	Bill         *handler.BillHandler
	Payment      *handler.PaymentHandler
	Cheque       *handler.ChequeHandler
	Lookup       *handler.LookupHandler
	Notification *handler.NotificationHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg     *config.Config
	Log     *zap.Logger
	Session middleware.SessionGate
	Guard   middleware.Guard
	// Limiter throttles /api/v1 per client; Close stops it
	Limiter *middleware.ClientRateLimiter
}

// NewHandlers builds the handlers over the services of a
func NewHandlers(a *app.App) *Handlers {
	return &Handlers{
		Session:      handler.NewSessionHandler(a.Session),
		Invoice:      handler.NewInvoiceHandler(a.Cache, a.Transfers),
		Bill:         handler.NewBillHandler(a.Cache, a.Payments),
		Payment:      handler.NewPaymentHandler(a.Cache, a.Transfers),
		Cheque:       handler.NewChequeHandler(a.Cache),
		Lookup:       handler.NewLookupHandler(a.Cache),
		Notification: handler.NewNotificationHandler(a.Feed),
	}
}

// NewDeps takes the route dependencies from a
func NewDeps(a *app.App) *Deps {
	return &Deps{
		Cfg:     a.Config,
		Log:     a.Log,
		Session: a.Session,
		Guard:   a.Guard,
		Limiter: NewRateLimiter(&a.Config.RateLimit),
	}
}

// Close releases the background work owned by the route dependencies
func (d *Deps) Close() {
	if d.Limiter != nil {
		d.Limiter.Stop()
	}
}

// NewRateLimiter builds the per-client limiter for cfg
func NewRateLimiter(cfg *config.RateLimitConfig) *middleware.ClientRateLimiter {
	limiterCfg := middleware.RateLimiterConfig{
		BurstSize:       cfg.Requests,
		CleanupInterval: 5 * time.Minute,
		EntryTTL:        10 * time.Minute,
	}
	if cfg.Requests > 0 && cfg.Duration > 0 {
		limiterCfg.RequestsPerSecond = float64(cfg.Requests) / float64(cfg.Duration)
	}
	return middleware.NewClientRateLimiter(limiterCfg)
}

// Setup creates the Gin router and registers all routes. A limiter is
// created on deps when it has none.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
			"session": deps.Session.State(),
		})
	}
	router.GET("/health", health)

	if deps.Limiter == nil {
		deps.Limiter = NewRateLimiter(&deps.Cfg.RateLimit)
	}

	v1 := router.Group("/api/v1")
	v1.Use(deps.Limiter.Middleware())
	v1.Use(middleware.Idempotency(deps.Guard))
	{
		v1.GET("/health", health)
		registerSessionRoutes(v1, h)

		signedIn := v1.Group("")
		signedIn.Use(middleware.RequireSession(deps.Session))
		registerAgentRoutes(signedIn, h)

		admin := v1.Group("")
		admin.Use(middleware.RequireSession(deps.Session, enum.RoleAdmin))
		registerAdminRoutes(admin, h)
	}

	return router
}

func registerSessionRoutes(v1 *gin.RouterGroup, h *Handlers) {
	session := v1.Group("/session")
	{
		session.GET("", h.Session.Get)
		session.POST("/login", h.Session.Login)
		session.POST("/verify-otp", h.Session.VerifyOTP)
		session.POST("/logout", h.Session.Logout)
	}
}

func registerAgentRoutes(rg *gin.RouterGroup, h *Handlers) {
	bills := rg.Group("/my-bills")
	{
		bills.GET("", h.Bill.List)
		bills.POST("/:id/payments", h.Bill.RecordPayment)
	}

	rg.GET("/routes", h.Lookup.Routes)
	rg.GET("/routes/:id/outlets", h.Lookup.Outlets)
	rg.GET("/notifications", h.Notification.List)
}

func registerAdminRoutes(rg *gin.RouterGroup, h *Handlers) {
	invoices := rg.Group("/invoices")
	{
		invoices.GET("", h.Invoice.List)
		invoices.GET("/snapshot", h.Invoice.Snapshot)
		invoices.PUT("/search", h.Invoice.QueueSearch)
		invoices.POST("", h.Invoice.Create)
		invoices.PATCH("/:id", h.Invoice.Patch)
		invoices.POST("/:id/assign", h.Invoice.Assign)
		invoices.POST("/import", h.Invoice.Import)
		invoices.GET("/export", h.Invoice.Export)
	}

	payments := rg.Group("/payments")
	{
		payments.GET("", h.Payment.List)
		payments.GET("/report", h.Payment.Report)
		payments.GET("/today-totals", h.Payment.TodayTotals)
	}

	cheques := rg.Group("/cheques")
	{
		cheques.GET("", h.Cheque.List)
		cheques.PUT("/:id", h.Cheque.UpdateStatus)
		cheques.DELETE("/:id", h.Cheque.Delete)
	}

	rg.GET("/employees", h.Lookup.Employees)
}
