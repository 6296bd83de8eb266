package service

import (
	"context"
	"sync"
	"time"

	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/pkg/utils"
	"go.uber.org/zap"
)

// Notifier delivers user-facing notifications
type Notifier interface {
	Notify(ctx context.Context, n entity.Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, n entity.Notification)

func (f NotifierFunc) Notify(ctx context.Context, n entity.Notification) {
	f(ctx, n)
}

// LogNotifier writes notifications to the process log
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n entity.Notification) {
	fields := []zap.Field{
		zap.String("title", n.Title),
		zap.String("description", n.Description),
	}
	if n.Level == entity.NotificationDestructive {
		l.log.Warn("notification", fields...)
		return
	}
	l.log.Info("notification", fields...)
}

// NotificationFeed keeps the most recent notifications in memory
type NotificationFeed struct {
	mu    sync.RWMutex
	size  int
	items []entity.Notification
}

func NewNotificationFeed(size int) *NotificationFeed {
	if size <= 0 {
		size = 50
	}
	return &NotificationFeed{size: size}
}

func (f *NotificationFeed) Notify(_ context.Context, n entity.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, n)
	if over := len(f.items) - f.size; over > 0 {
		f.items = append([]entity.Notification(nil), f.items[over:]...)
	}
}

// List returns the retained notifications, newest first
func (f *NotificationFeed) List() []entity.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]entity.Notification, len(f.items))
	for i, n := range f.items {
		out[len(f.items)-1-i] = n
	}
	return out
}

// MultiNotifier fans a notification out to several notifiers
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n entity.Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

func newNotification(level entity.NotificationLevel, title, description string) entity.Notification {
	return entity.Notification{
		ID:          utils.NewRequestID(),
		Level:       level,
		Title:       title,
		Description: description,
		Time:        time.Now(),
	}
}

func notifySuccess(ctx context.Context, n Notifier, title, description string) {
	n.Notify(ctx, newNotification(entity.NotificationDefault, title, description))
}

func notifyFailure(ctx context.Context, n Notifier, description string) {
	n.Notify(ctx, newNotification(entity.NotificationDestructive, "Error", description))
}
