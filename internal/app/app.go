// Package app wires the billing client together. One App is one signed-in
// desk: a session, the cached collections and the services on top of them.
package app

import (
	"context"
	"fmt"

	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/config"
	domainRepo "github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/internal/infrastructure/apiclient"
	"github.com/sangkips/billdesk/internal/infrastructure/database"
	"github.com/sangkips/billdesk/internal/infrastructure/repository"
	"go.uber.org/zap"
)

type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Client    *apiclient.Client
	Store     domainRepo.SessionStore
	Validator *validation.Validator
	Feed      *service.NotificationFeed
	Guard     *service.SubmissionGuard
	Session   *service.SessionService
	Cache     *service.DataCache
	Payments  *service.PaymentService
	Transfers *service.TransferService
}

// New builds an App from cfg. The session is not read until Init.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	store, err := NewSessionStore(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewWithStore(cfg, log, store), nil
}

// NewSessionStore opens the store selected by SESSION_STORE
func NewSessionStore(cfg *config.Config, log *zap.Logger) (domainRepo.SessionStore, error) {
	switch cfg.Session.Store {
	case "memory":
		return repository.NewMemorySessionStore(), nil
	case "postgres":
		db, err := database.NewPostgresDB(&cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, err
		}
		return repository.NewGormSessionStore(db, cfg.Session.Profile), nil
	case "", "file":
		return repository.NewFileSessionStore(cfg.Session.File, cfg.Session.Passphrase)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

// NewWithStore builds an App around an already opened store
func NewWithStore(cfg *config.Config, log *zap.Logger, store domainRepo.SessionStore) *App {
	a := &App{
		Config:    cfg,
		Log:       log,
		Store:     store,
		Validator: validation.New(),
		Feed:      service.NewNotificationFeed(cfg.Notification.FeedSize),
		Guard:     service.NewSubmissionGuard(),
	}

	a.Client = apiclient.New(apiclient.Options{
		BaseURL:   cfg.API.BaseURL,
		Prefix:    cfg.API.Prefix,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		Logger:    log.Named("api"),
	})
	a.Session = service.NewSessionService(a.Client, store, a.Validator, log.Named("session"), service.SessionOptions{
		StepUpUsernames: cfg.Session.StepUpUsernames,
		RefreshLeeway:   cfg.Session.RefreshLeeway,
	})
	a.Client.UseTokenSource(a.Session)

	notifier := service.MultiNotifier{service.NewLogNotifier(log.Named("notify")), a.Feed}
	a.Cache = service.NewDataCache(a.Client, a.Validator, notifier, a.Guard, log.Named("cache"), service.DataCacheOptions{
		SearchDebounce: cfg.Search.Debounce,
	})
	a.Payments = service.NewPaymentService(a.Client, a.Cache, a.Validator, notifier, a.Guard, log.Named("payments"))
	a.Transfers = service.NewTransferService(a.Client, a.Cache, a.Validator, notifier, a.Guard, log.Named("transfers"))
	return a
}

// Init restores the persisted session
func (a *App) Init(ctx context.Context) error {
	return a.Session.Init(ctx)
}

// Teardown stops background work and closes the store
func (a *App) Teardown() error {
	a.Cache.Close()
	return a.Store.Close()
}
