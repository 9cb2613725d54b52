package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newNotificationServiceFixture(t *testing.T) (NotificationService, *stubRegistry) {
	t.Helper()

	registry := newStubRegistry()
	svc, err := NewNotificationService(NotificationServiceDeps{
		Registry:    registry,
		IDGenerator: sequentialIDs("ntf"),
		Clock:       fixedClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("new notification service: %v", err)
	}
	return svc, registry
}

func TestNotifyAdminsFansOut(t *testing.T) {
	svc, registry := newNotificationServiceFixture(t)
	registry.users.adminIDs = []string{"admin-1", "admin-2", "admin-3"}

	if err := svc.NotifyAdmins(context.Background(), "Low stock", "Product X is running low."); err != nil {
		t.Fatalf("notify admins: %v", err)
	}

	if got := len(registry.notifications.notifications); got != 3 {
		t.Fatalf("expected 3 notifications, got %d", got)
	}
	seen := map[string]bool{}
	for _, n := range registry.notifications.notifications {
		if n.Title != "Low stock" || n.Read {
			t.Fatalf("unexpected notification: %+v", n)
		}
		seen[n.UserID] = true
	}
	if !seen["admin-1"] || !seen["admin-2"] || !seen["admin-3"] {
		t.Fatalf("expected one notification per admin, got %v", seen)
	}
}

func TestNotifyAdminsInsertFailureIsSwallowed(t *testing.T) {
	svc, registry := newNotificationServiceFixture(t)
	registry.users.adminIDs = []string{"admin-1"}
	registry.notifications.insertErr = errors.New("store offline")

	if err := svc.NotifyAdmins(context.Background(), "Low stock", "msg"); err != nil {
		t.Fatalf("expected insert failure swallowed, got %v", err)
	}
}

func TestNotifyAdminsRecipientLookupFailure(t *testing.T) {
	svc, registry := newNotificationServiceFixture(t)
	registry.users.adminErr = errors.New("users unavailable")

	if err := svc.NotifyAdmins(context.Background(), "Low stock", "msg"); err == nil {
		t.Fatal("expected error when recipients cannot be resolved")
	}
}

func TestNotificationFeed(t *testing.T) {
	svc, registry := newNotificationServiceFixture(t)
	registry.users.adminIDs = []string{"admin-1", "admin-2"}
	ctx := context.Background()

	if err := svc.NotifyAdmins(ctx, "First", "m1"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := svc.NotifyAdmins(ctx, "Second", "m2"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	page, err := svc.ListForUser(ctx, "admin-1", NotificationListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 notifications for admin-1, got %d", len(page.Items))
	}

	if err := svc.MarkRead(ctx, "admin-1", page.Items[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	unread, err := svc.ListForUser(ctx, "admin-1", NotificationListFilter{UnreadOnly: true})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread.Items) != 1 {
		t.Fatalf("expected 1 unread notification, got %d", len(unread.Items))
	}

	// A user cannot mark someone else's notification read.
	other, err := svc.ListForUser(ctx, "admin-2", NotificationListFilter{})
	if err != nil {
		t.Fatalf("list admin-2: %v", err)
	}
	if err := svc.MarkRead(ctx, "admin-1", other.Items[0].ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound for foreign notification, got %v", err)
	}

	count, err := svc.MarkAllRead(ctx, "admin-1")
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 notification marked, got %d", count)
	}

	remaining, err := svc.ListForUser(ctx, "admin-1", NotificationListFilter{UnreadOnly: true})
	if err != nil {
		t.Fatalf("list after mark all: %v", err)
	}
	if len(remaining.Items) != 0 {
		t.Fatalf("expected no unread notifications, got %d", len(remaining.Items))
	}
}

func TestNotificationValidation(t *testing.T) {
	svc, _ := newNotificationServiceFixture(t)
	ctx := context.Background()

	if err := svc.NotifyAdmins(ctx, " ", "msg"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank title, got %v", err)
	}
	if _, err := svc.ListForUser(ctx, "", NotificationListFilter{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing user id, got %v", err)
	}
	if err := svc.MarkRead(ctx, "u1", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing notification id, got %v", err)
	}
}
