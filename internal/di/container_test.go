package di

import (
	"context"
	"testing"

	"github.com/stockroom/api/internal/platform/config"
	"github.com/stockroom/api/internal/repositories"
)

type fakeAuditRepo struct {
	repositories.AuditLogRepository
}

type fakeRegistry struct {
	repositories.Registry
	closed bool
}

func (f *fakeRegistry) AuditLogs() repositories.AuditLogRepository { return fakeAuditRepo{} }

func (f *fakeRegistry) Close(context.Context) error {
	f.closed = true
	return nil
}

func TestNewContainerBuildsAllServices(t *testing.T) {
	reg := &fakeRegistry{}

	container, err := NewContainer(context.Background(), config.Config{}, reg, Deps{})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	svc := container.Services
	if svc.Orders == nil || svc.Invoices == nil || svc.Catalog == nil || svc.Notifications == nil || svc.Audit == nil {
		t.Fatalf("expected all services wired, got %+v", svc)
	}

	if err := container.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !reg.closed {
		t.Fatal("expected registry Close to be called")
	}
}

func TestNewContainerRequiresRegistry(t *testing.T) {
	if _, err := NewContainer(context.Background(), config.Config{}, nil, Deps{}); err == nil {
		t.Fatal("expected error for nil registry")
	}
}
