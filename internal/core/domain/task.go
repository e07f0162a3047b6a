package domain

import "time"

// TaskPriority ranks how urgently a task should be handled.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

// Task is a unit of work tracked on the dashboard. Tasks live only in the
// local store; ID is generated client-side.
//
// CompletedAt is non-nil if and only if Status is TaskCompleted.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	AssignedTo  string       `json:"assignedTo"`
	AssignedBy  string       `json:"assignedBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	DueDate     time.Time    `json:"dueDate"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	ReminderSet *time.Time   `json:"reminderSet,omitempty"`
	Tags        []string     `json:"tags"`
}

// Clone returns a deep copy so callers cannot mutate store-owned slices or
// timestamps.
func (t Task) Clone() Task {
	out := t
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		out.CompletedAt = &ts
	}
	if t.ReminderSet != nil {
		ts := *t.ReminderSet
		out.ReminderSet = &ts
	}
	return out
}

// TaskCounts summarises tasks by status.
type TaskCounts struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
}

// Add counts a single task.
func (c *TaskCounts) Add(status TaskStatus) {
	c.Total++
	switch status {
	case TaskCompleted:
		c.Completed++
	case TaskPending:
		c.Pending++
	case TaskInProgress:
		c.InProgress++
	}
}
