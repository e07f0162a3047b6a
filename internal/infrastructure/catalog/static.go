// Package catalog provides the built-in client catalog used when no
// database is configured.
package catalog

import (
	"context"
	"time"

	"github.com/taskdash/dashboard/internal/core/domain"
)

// DefaultClientAvatar is shown for clients without a picture.
const DefaultClientAvatar = "https://images.pexels.com/photos/3184291/pexels-photo-3184291.jpeg?auto=compress&cs=tinysrgb&w=400"

// Static serves a fixed list of clients.
type Static struct {
	clients []domain.Client
}

// NewStatic returns a catalog over clients. A nil slice selects the demo
// fixtures.
func NewStatic(clients []domain.Client) *Static {
	if clients == nil {
		clients = DemoClients()
	}
	return &Static{clients: clients}
}

// ListClients returns a copy of the catalog with avatars filled in.
func (s *Static) ListClients(context.Context) ([]domain.Client, error) {
	out := make([]domain.Client, len(s.clients))
	for i, c := range s.clients {
		if c.Avatar == "" {
			c.Avatar = DefaultClientAvatar
		}
		out[i] = c
	}
	return out, nil
}

// DemoClients is the fixture catalog shipped with the dashboard.
func DemoClients() []domain.Client {
	since := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	return []domain.Client{
		{
			ID: "client-1", Name: "Sarah Johnson", Email: "sarah@techcorp.com", Company: "TechCorp Solutions",
			TasksCount: domain.TaskCounts{Total: 12, Completed: 8, Pending: 2, InProgress: 2},
			CreatedAt:  since,
		},
		{
			ID: "client-2", Name: "Michael Chen", Email: "michael@innovate.io", Company: "Innovate Labs",
			TasksCount: domain.TaskCounts{Total: 7, Completed: 3, Pending: 3, InProgress: 1},
			CreatedAt:  since.AddDate(0, 1, 0),
		},
		{
			ID: "client-3", Name: "Emily Davis", Email: "emily@greenleaf.co", Company: "GreenLeaf Consulting",
			TasksCount: domain.TaskCounts{Total: 4, Completed: 4},
			CreatedAt:  since.AddDate(0, 2, 10),
		},
	}
}
