package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
	"github.com/taskdash/dashboard/internal/metrics"
	"github.com/taskdash/dashboard/internal/pkg/validation"
)

// Tasks returns the tasks matching filter in creation order.
func (s *StoreService) Tasks(filter ports.TaskFilter) []domain.Task {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Task, 0, len(s.taskList))
	for _, t := range s.taskList {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		if filter.Priority != "" && string(t.Priority) != filter.Priority {
			continue
		}
		if v := filter.VisibleTo; v != nil && !v.IsAdmin() && t.AssignedTo != v.ID {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

// Task returns a single task.
func (s *StoreService) Task(id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findTaskLocked(id)
	if idx < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return s.taskList[idx].Clone(), nil
}

// AddTask creates a task locally and notifies its assignee.
func (s *StoreService) AddTask(ctx context.Context, in ports.NewTask) (domain.Task, error) {
	if err := validation.Struct(in); err != nil {
		return domain.Task{}, err
	}

	now := s.now()
	task := domain.Task{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Priority:    domain.TaskPriority(in.Priority),
		Status:      domain.TaskStatus(in.Status),
		AssignedTo:  in.AssignedTo,
		AssignedBy:  in.AssignedBy,
		CreatedAt:   now,
		DueDate:     in.DueDate,
		Tags:        append([]string{}, in.Tags...),
	}
	if task.AssignedBy == "" {
		task.AssignedBy = s.actorID()
	}
	if in.ReminderSet != nil {
		ts := *in.ReminderSet
		task.ReminderSet = &ts
	}
	if task.Status == domain.TaskCompleted {
		task.CompletedAt = &now
	}

	n := s.buildNotification(ports.NewNotification{
		Type:    domain.NotificationTaskAssigned,
		Title:   "New Task Assigned",
		Message: fmt.Sprintf("You have been assigned a new task: %s", task.Title),
		UserID:  task.AssignedTo,
		TaskID:  task.ID,
	})

	s.mu.Lock()
	s.taskList = append(s.taskList, task)
	s.prependLocked(n)
	s.mu.Unlock()

	metrics.TasksCreatedTotal.WithLabelValues(string(task.Priority)).Inc()
	s.log.Info().Str("task_id", task.ID).Str("assigned_to", task.AssignedTo).Msg("task created")

	s.mirrorTask(ctx, task)
	return task.Clone(), nil
}

// UpdateTask merges patch into the task with the given id. Moving a task to
// completed stamps CompletedAt (unless supplied); moving it out clears it.
// A change of assignee and a transition to completed each produce one
// notification.
func (s *StoreService) UpdateTask(id string, patch ports.TaskPatch) (domain.Task, error) {
	if err := validateTaskPatch(patch); err != nil {
		return domain.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findTaskLocked(id)
	if idx < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	cur := s.taskList[idx]
	next := cur.Clone()

	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Priority != nil {
		next.Priority = domain.TaskPriority(*patch.Priority)
	}
	if patch.Status != nil {
		next.Status = domain.TaskStatus(*patch.Status)
	}
	if patch.AssignedTo != nil {
		next.AssignedTo = *patch.AssignedTo
	}
	if patch.DueDate != nil {
		next.DueDate = *patch.DueDate
	}
	if patch.ReminderSet != nil {
		ts := *patch.ReminderSet
		next.ReminderSet = &ts
	}
	if patch.Tags != nil {
		next.Tags = append([]string{}, patch.Tags...)
	}

	completedNow := next.Status == domain.TaskCompleted && cur.Status != domain.TaskCompleted
	switch {
	case next.Status != domain.TaskCompleted:
		next.CompletedAt = nil
	case patch.CompletedAt != nil:
		ts := *patch.CompletedAt
		next.CompletedAt = &ts
	case completedNow:
		ts := s.now()
		next.CompletedAt = &ts
	}
	if next.CompletedAt != nil && next.CompletedAt.Before(next.CreatedAt) {
		return domain.Task{}, domain.NewValidationError("completedat must not precede createdat")
	}

	s.taskList[idx] = next
	if patch.DueDate != nil {
		delete(s.deadlineWarned, id)
	}
	if patch.ReminderSet != nil {
		delete(s.reminded, id)
	}

	if next.AssignedTo != cur.AssignedTo {
		s.prependLocked(s.buildNotification(ports.NewNotification{
			Type:    domain.NotificationTaskAssigned,
			Title:   "New Task Assigned",
			Message: fmt.Sprintf("You have been assigned a new task: %s", next.Title),
			UserID:  next.AssignedTo,
			TaskID:  next.ID,
		}))
	}
	if completedNow {
		// Tasks created without an assigner report back to the assignee.
		recipient := next.AssignedBy
		if recipient == "" {
			recipient = next.AssignedTo
		}
		s.prependLocked(s.buildNotification(ports.NewNotification{
			Type:    domain.NotificationTaskCompleted,
			Title:   "Task Completed",
			Message: fmt.Sprintf("Task %q has been marked as completed.", next.Title),
			UserID:  recipient,
			TaskID:  next.ID,
		}))
	}

	return next.Clone(), nil
}

// DeleteTask removes a task. No notification is produced.
func (s *StoreService) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findTaskLocked(id)
	if idx < 0 {
		return domain.ErrTaskNotFound
	}
	s.taskList = append(s.taskList[:idx:idx], s.taskList[idx+1:]...)
	delete(s.reminded, id)
	delete(s.deadlineWarned, id)
	return nil
}

func (s *StoreService) findTaskLocked(id string) int {
	for i, t := range s.taskList {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// mirrorTask sends task to the backend when a mirror is configured. Failures
// are logged only; the local task and its notification stand either way.
func (s *StoreService) mirrorTask(ctx context.Context, task domain.Task) {
	if s.mirror == nil {
		return
	}
	token := s.session.Token()
	if token == "" {
		return
	}

	req := ports.CreateTaskRequest{
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
	}
	if id, err := strconv.ParseInt(task.AssignedTo, 10, 64); err == nil {
		req.AssignedTo = &id
	}
	if err := s.mirror.CreateTask(ctx, token, req); err != nil {
		s.log.Warn().Err(err).Str("task_id", task.ID).Msg("failed to mirror task to backend")
	}
}

func validateTaskPatch(p ports.TaskPatch) error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return domain.NewValidationError("duedate is required")
	}
	return nil
}

// dueLabel formats a due date for notification text.
func dueLabel(t time.Time) string {
	return t.Format("Jan 2, 2006 15:04")
}
