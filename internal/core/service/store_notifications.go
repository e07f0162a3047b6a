package service

import (
	"fmt"
	"time"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
	"github.com/taskdash/dashboard/internal/metrics"
)

// Notifications returns notifications newest first. An empty userID returns
// every notification.
func (s *StoreService) Notifications(userID string) []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if userID == "" || n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// AddNotification enqueues a notification at the head of the list.
func (s *StoreService) AddNotification(in ports.NewNotification) domain.Notification {
	n := s.buildNotification(in)

	s.mu.Lock()
	s.prependLocked(n)
	s.mu.Unlock()
	return n
}

// MarkNotificationAsRead flags a notification as read. Marking an already
// read notification is a no-op.
func (s *StoreService) MarkNotificationAsRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

// SweepReminders emits a reminder for every open task whose reminder time
// has passed and a deadline warning for every open task due within the
// deadline window. Each task gets each kind at most once.
func (s *StoreService) SweepReminders(now time.Time) []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var emitted []domain.Notification
	for _, t := range s.taskList {
		if t.Status == domain.TaskCompleted {
			continue
		}

		if t.ReminderSet != nil && !t.ReminderSet.After(now) {
			if _, done := s.reminded[t.ID]; !done {
				s.reminded[t.ID] = struct{}{}
				emitted = append(emitted, s.buildNotification(ports.NewNotification{
					Type:    domain.NotificationReminder,
					Title:   "Task Reminder",
					Message: fmt.Sprintf("Reminder: %q is due %s", t.Title, dueLabel(t.DueDate)),
					UserID:  t.AssignedTo,
					TaskID:  t.ID,
				}))
			}
		}

		if s.deadlineWindow > 0 && t.DueDate.Sub(now) <= s.deadlineWindow {
			if _, done := s.deadlineWarned[t.ID]; !done {
				s.deadlineWarned[t.ID] = struct{}{}
				emitted = append(emitted, s.buildNotification(ports.NewNotification{
					Type:    domain.NotificationDeadlineApproaching,
					Title:   "Deadline Approaching",
					Message: fmt.Sprintf("%q is due on %s", t.Title, dueLabel(t.DueDate)),
					UserID:  t.AssignedTo,
					TaskID:  t.ID,
				}))
			}
		}
	}

	for _, n := range emitted {
		s.prependLocked(n)
	}
	if len(emitted) > 0 {
		s.log.Debug().Int("count", len(emitted)).Msg("reminder sweep emitted notifications")
	}
	return emitted
}

func (s *StoreService) buildNotification(in ports.NewNotification) domain.Notification {
	return domain.Notification{
		ID:        s.newID(),
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		UserID:    in.UserID,
		TaskID:    in.TaskID,
		IsRead:    in.IsRead,
		CreatedAt: s.now(),
	}
}

// prependLocked must be called with mu held.
func (s *StoreService) prependLocked(n domain.Notification) {
	s.notifications = append([]domain.Notification{n}, s.notifications...)
	metrics.NotificationsEmittedTotal.WithLabelValues(string(n.Type)).Inc()
}
