package entity

import "time"

type NotificationLevel string

const (
	NotificationDefault     NotificationLevel = "default"
	NotificationDestructive NotificationLevel = "destructive"
)

// Notification is a user-facing message about a completed or failed action
type Notification struct {
	ID          string            `json:"id"`
	Level       NotificationLevel `json:"level"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Time        time.Time         `json:"time"`
}
