package catalog

import (
	"context"
	"testing"

	"github.com/taskdash/dashboard/internal/core/domain"
)

func TestStatic_DefaultsToDemoClients(t *testing.T) {
	got, err := NewStatic(nil).ListClients(context.Background())
	if err != nil {
		t.Fatalf("ListClients returned error: %v", err)
	}
	if len(got) != len(DemoClients()) {
		t.Fatalf("expected demo catalog, got %d clients", len(got))
	}
	for _, c := range got {
		if c.Avatar == "" {
			t.Fatalf("expected avatar fallback for %s", c.ID)
		}
		counts := c.TasksCount
		if counts.Completed+counts.Pending+counts.InProgress != counts.Total {
			t.Fatalf("inconsistent counts for %s: %+v", c.ID, counts)
		}
	}
}

func TestStatic_ReturnsCopies(t *testing.T) {
	cat := NewStatic([]domain.Client{{ID: "c1", Name: "Acme"}})

	first, _ := cat.ListClients(context.Background())
	first[0].Name = "changed"

	second, _ := cat.ListClients(context.Background())
	if second[0].Name != "Acme" {
		t.Fatalf("catalog was mutated through a returned slice")
	}
}
