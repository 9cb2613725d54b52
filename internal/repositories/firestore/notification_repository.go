package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/stockroom/api/internal/domain"
	pfirestore "github.com/stockroom/api/internal/platform/firestore"
	"github.com/stockroom/api/internal/platform/pagination"
	"github.com/stockroom/api/internal/repositories"
)

const notificationsCollection = "notifications"

// NotificationRepository stores in-app notifications addressed to one user.
type NotificationRepository struct {
	provider      *pfirestore.Provider
	notifications *pfirestore.BaseRepository[notificationDocument]
}

func NewNotificationRepository(provider *pfirestore.Provider) (*NotificationRepository, error) {
	if provider == nil {
		return nil, errors.New("notification repository requires firestore provider")
	}
	notifications := pfirestore.NewBaseRepository[notificationDocument](provider, notificationsCollection, nil, nil)
	return &NotificationRepository{provider: provider, notifications: notifications}, nil
}

func (r *NotificationRepository) Insert(ctx context.Context, notification domain.Notification) error {
	if r == nil || r.notifications == nil {
		return errors.New("notification repository not initialised")
	}
	if strings.TrimSpace(notification.ID) == "" {
		return errors.New("notification insert: id is required")
	}
	if strings.TrimSpace(notification.UserID) == "" {
		return errors.New("notification insert: user id is required")
	}
	_, err := r.notifications.Create(ctx, notification.ID, newNotificationDocument(notification))
	return err
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, filter repositories.NotificationListFilter) (domain.CursorPage[domain.Notification], error) {
	if r == nil || r.notifications == nil {
		return domain.CursorPage[domain.Notification]{}, errors.New("notification repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.CursorPage[domain.Notification]{}, errors.New("notification list: user id is required")
	}

	pageSize := normalisePageSize(filter.Pagination.PageSize)
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Notification]{}, err
	}

	docs, err := r.notifications.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("userId", "==", userID)
		if filter.UnreadOnly {
			q = q.Where("read", "==", false)
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Notification]{}, err
	}

	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}

	notifications := make([]domain.Notification, 0, len(docs))
	for _, doc := range docs {
		notifications = append(notifications, doc.Data.toDomain(doc.ID))
	}

	var nextToken string
	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		nextToken, err = pagination.EncodeToken(pagination.Cursor{StartAfter: []any{last.Data.CreatedAt, last.ID}})
		if err != nil {
			return domain.CursorPage[domain.Notification]{}, err
		}
	}

	return domain.CursorPage[domain.Notification]{Items: notifications, NextPageToken: nextToken}, nil
}

// MarkRead flips the read flag on a single notification owned by userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID string, notificationID string) error {
	if r == nil || r.notifications == nil {
		return errors.New("notification repository not initialised")
	}
	if strings.TrimSpace(notificationID) == "" {
		return errors.New("notification mark read: id is required")
	}

	doc, err := r.notifications.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if doc.Data.UserID != strings.TrimSpace(userID) {
		return pfirestore.WrapError("notifications.markread", errors.New("notification does not belong to user"))
	}
	if doc.Data.Read {
		return nil
	}
	_, err = r.notifications.Update(ctx, notificationID, []firestore.Update{
		{Path: "read", Value: true},
	})
	return err
}

// MarkAllRead flips the read flag on every unread notification for userID
// and reports how many were updated.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if r == nil || r.notifications == nil {
		return 0, errors.New("notification repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, errors.New("notification mark all read: user id is required")
	}

	docs, err := r.notifications.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("userId", "==", userID).Where("read", "==", false)
	})
	if err != nil {
		return 0, err
	}

	for _, doc := range docs {
		if _, err := r.notifications.Update(ctx, doc.ID, []firestore.Update{
			{Path: "read", Value: true},
		}); err != nil {
			return 0, err
		}
	}
	return len(docs), nil
}

type notificationDocument struct {
	UserID    string    `firestore:"userId"`
	Title     string    `firestore:"title"`
	Message   string    `firestore:"message"`
	Read      bool      `firestore:"read"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func newNotificationDocument(notification domain.Notification) notificationDocument {
	return notificationDocument{
		UserID:    strings.TrimSpace(notification.UserID),
		Title:     strings.TrimSpace(notification.Title),
		Message:   notification.Message,
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt.UTC(),
	}
}

func (d notificationDocument) toDomain(id string) domain.Notification {
	return domain.Notification{
		ID:        id,
		UserID:    d.UserID,
		Title:     d.Title,
		Message:   d.Message,
		Read:      d.Read,
		CreatedAt: d.CreatedAt,
	}
}
