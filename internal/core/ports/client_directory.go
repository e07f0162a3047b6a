package ports

import (
	"context"

	"github.com/taskdash/dashboard/internal/core/domain"
)

// ClientDirectory supplies the read-only customer catalog.
type ClientDirectory interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
}
