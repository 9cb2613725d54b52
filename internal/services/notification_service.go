package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/stockroom/api/internal/domain"
	"github.com/stockroom/api/internal/repositories"
)

// NotificationServiceDeps wires the notification service dependencies.
type NotificationServiceDeps struct {
	Registry    repositories.Registry
	IDGenerator IDGenerator
	Clock       func() time.Time
	Log         LogFunc
}

type notificationService struct {
	registry repositories.Registry
	newID    IDGenerator
	clock    func() time.Time
	log      LogFunc
}

// NewNotificationService constructs the in-app notification service.
func NewNotificationService(deps NotificationServiceDeps) (NotificationService, error) {
	if deps.Registry == nil {
		return nil, errors.New("notification service requires a repository registry")
	}
	return &notificationService{
		registry: deps.Registry,
		newID:    defaultIDGenerator(deps.IDGenerator),
		clock:    defaultClock(deps.Clock),
		log:      defaultLog(deps.Log),
	}, nil
}

// NotifyAdmins fans one message out to every admin account. Individual
// insert failures are logged and skipped so one broken recipient does not
// block the rest.
func (s *notificationService) NotifyAdmins(ctx context.Context, title string, message string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}

	adminIDs, err := s.registry.Users().ListAdminIDs(ctx)
	if err != nil {
		return fmt.Errorf("resolve admin recipients: %w", err)
	}

	now := s.clock().UTC()
	for _, adminID := range adminIDs {
		notification := Notification{
			ID:        s.newID(),
			UserID:    adminID,
			Title:     title,
			Message:   message,
			CreatedAt: now,
		}
		if err := s.registry.Notifications().Insert(ctx, notification); err != nil {
			s.log(ctx, "notification.insert_failed", map[string]any{
				"userId": adminID,
				"error":  err.Error(),
			})
		}
	}
	return nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID string, filter NotificationListFilter) (domain.CursorPage[Notification], error) {
	if userID == "" {
		return domain.CursorPage[Notification]{}, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	return s.registry.Notifications().ListForUser(ctx, userID, repositories.NotificationListFilter{
		UnreadOnly: filter.UnreadOnly,
		Pagination: filter.Pagination,
	})
}

func (s *notificationService) MarkRead(ctx context.Context, userID string, notificationID string) error {
	if userID == "" || notificationID == "" {
		return fmt.Errorf("%w: user id and notification id are required", ErrValidation)
	}
	if err := s.registry.Notifications().MarkRead(ctx, userID, notificationID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotificationNotFound, notificationID)
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	return s.registry.Notifications().MarkAllRead(ctx, userID)
}
