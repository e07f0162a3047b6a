package domain

import "time"

// Client is a customer record shown on the dashboard. It is reference data:
// nothing in this module mutates it.
type Client struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Company    string     `json:"company"`
	Avatar     string     `json:"avatar,omitempty"`
	TasksCount TaskCounts `json:"tasksCount"`
	CreatedAt  time.Time  `json:"createdAt"`
}
