package domain

import "time"

// NotificationType classifies a system-generated notification.
type NotificationType string

const (
	NotificationTaskAssigned        NotificationType = "task_assigned"
	NotificationTaskCompleted       NotificationType = "task_completed"
	NotificationReminder            NotificationType = "reminder"
	NotificationDeadlineApproaching NotificationType = "deadline_approaching"
)

// Notification is an event addressed to a single user. Notifications are
// only produced as a side effect of task and user mutations.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	UserID    string           `json:"userId"`
	TaskID    string           `json:"taskId,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}
