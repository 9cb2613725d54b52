package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/stockroom/api/internal/domain"
)

type capturingWarnLogger struct {
	warnings []string
}

func (l *capturingWarnLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func TestAuditLogServiceRecord(t *testing.T) {
	repo := &stubAuditLogRepo{}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	svc, err := NewAuditLogService(AuditLogServiceDeps{
		Repository:  repo,
		IDGenerator: sequentialIDs("aud"),
		Clock:       fixedClock(now),
	})
	if err != nil {
		t.Fatalf("new audit log service: %v", err)
	}

	svc.Record(context.Background(), AuditLogRecord{
		ActorID:    "user-1",
		Action:     domain.AuditActionCreate,
		EntityType: "order",
		EntityID:   "o1",
		Details:    map[string]any{"orderNumber": "ORD-1-A"},
	})

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.ID != "aud-001" {
		t.Fatalf("expected generated id, got %q", entry.ID)
	}
	if !entry.CreatedAt.Equal(now) {
		t.Fatalf("expected clock timestamp for zero OccurredAt, got %s", entry.CreatedAt)
	}
	if entry.Action != domain.AuditActionCreate || entry.EntityID != "o1" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestAuditLogServiceRecordKeepsExplicitTimestamp(t *testing.T) {
	repo := &stubAuditLogRepo{}
	occurred := time.Date(2025, 5, 30, 8, 30, 0, 0, time.UTC)

	svc, err := NewAuditLogService(AuditLogServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("new audit log service: %v", err)
	}

	svc.Record(context.Background(), AuditLogRecord{
		Action:     domain.AuditActionDelete,
		EntityType: "invoice",
		EntityID:   "inv1",
		OccurredAt: occurred,
	})

	if !repo.entries[0].CreatedAt.Equal(occurred) {
		t.Fatalf("expected explicit timestamp preserved, got %s", repo.entries[0].CreatedAt)
	}
}

func TestAuditLogServiceRecordSwallowsAppendFailure(t *testing.T) {
	repo := &stubAuditLogRepo{appendErr: errors.New("trail offline")}
	logger := &capturingWarnLogger{}

	svc, err := NewAuditLogService(AuditLogServiceDeps{Repository: repo, Logger: logger})
	if err != nil {
		t.Fatalf("new audit log service: %v", err)
	}

	svc.Record(context.Background(), AuditLogRecord{
		Action:     domain.AuditActionUpdate,
		EntityType: "order",
		EntityID:   "o1",
	})

	if len(logger.warnings) != 1 {
		t.Fatalf("expected one warning, got %v", logger.warnings)
	}
}

func TestAuditLogServiceList(t *testing.T) {
	repo := &stubAuditLogRepo{entries: []domain.AuditLog{
		{ID: "a1", Action: domain.AuditActionCreate, EntityType: "order", EntityID: "o1"},
	}}

	svc, err := NewAuditLogService(AuditLogServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("new audit log service: %v", err)
	}

	page, err := svc.List(context.Background(), AuditLogFilter{EntityType: "order"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "a1" {
		t.Fatalf("unexpected page: %+v", page.Items)
	}
}
