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

const auditLogsCollection = "auditLogs"

// AuditLogRepository appends immutable audit trail entries.
type AuditLogRepository struct {
	entries *pfirestore.BaseRepository[auditLogDocument]
}

func NewAuditLogRepository(provider *pfirestore.Provider) (*AuditLogRepository, error) {
	if provider == nil {
		return nil, errors.New("audit log repository requires firestore provider")
	}
	entries := pfirestore.NewBaseRepository[auditLogDocument](provider, auditLogsCollection, nil, nil)
	return &AuditLogRepository{entries: entries}, nil
}

func (r *AuditLogRepository) Append(ctx context.Context, entry domain.AuditLog) error {
	if r == nil || r.entries == nil {
		return errors.New("audit log repository not initialised")
	}
	if strings.TrimSpace(entry.ID) == "" {
		return errors.New("audit log append: id is required")
	}
	_, err := r.entries.Create(ctx, entry.ID, newAuditLogDocument(entry))
	return err
}

func (r *AuditLogRepository) List(ctx context.Context, filter repositories.AuditLogFilter) (domain.CursorPage[domain.AuditLog], error) {
	if r == nil || r.entries == nil {
		return domain.CursorPage[domain.AuditLog]{}, errors.New("audit log repository not initialised")
	}

	pageSize := normalisePageSize(filter.Pagination.PageSize)
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.AuditLog]{}, err
	}

	docs, err := r.entries.Query(ctx, func(q firestore.Query) firestore.Query {
		if entityType := strings.TrimSpace(filter.EntityType); entityType != "" {
			q = q.Where("entityType", "==", entityType)
		}
		if entityID := strings.TrimSpace(filter.EntityID); entityID != "" {
			q = q.Where("entityId", "==", entityID)
		}
		if actorID := strings.TrimSpace(filter.ActorID); actorID != "" {
			q = q.Where("actorId", "==", actorID)
		}
		if action := strings.TrimSpace(filter.Action); action != "" {
			q = q.Where("action", "==", action)
		}
		if filter.DateRange.From != nil {
			q = q.Where("createdAt", ">=", filter.DateRange.From.UTC())
		}
		if filter.DateRange.To != nil {
			q = q.Where("createdAt", "<=", filter.DateRange.To.UTC())
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.AuditLog]{}, err
	}

	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}

	entries := make([]domain.AuditLog, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, doc.Data.toDomain(doc.ID))
	}

	var nextToken string
	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		nextToken, err = pagination.EncodeToken(pagination.Cursor{StartAfter: []any{last.Data.CreatedAt, last.ID}})
		if err != nil {
			return domain.CursorPage[domain.AuditLog]{}, err
		}
	}

	return domain.CursorPage[domain.AuditLog]{Items: entries, NextPageToken: nextToken}, nil
}

type auditLogDocument struct {
	ActorID    string         `firestore:"actorId"`
	Action     string         `firestore:"action"`
	EntityType string         `firestore:"entityType"`
	EntityID   string         `firestore:"entityId"`
	Details    map[string]any `firestore:"details,omitempty"`
	CreatedAt  time.Time      `firestore:"createdAt"`
}

func newAuditLogDocument(entry domain.AuditLog) auditLogDocument {
	return auditLogDocument{
		ActorID:    strings.TrimSpace(entry.ActorID),
		Action:     string(entry.Action),
		EntityType: strings.TrimSpace(entry.EntityType),
		EntityID:   strings.TrimSpace(entry.EntityID),
		Details:    entry.Details,
		CreatedAt:  entry.CreatedAt.UTC(),
	}
}

func (d auditLogDocument) toDomain(id string) domain.AuditLog {
	return domain.AuditLog{
		ID:         id,
		ActorID:    d.ActorID,
		Action:     domain.AuditAction(d.Action),
		EntityType: d.EntityType,
		EntityID:   d.EntityID,
		Details:    d.Details,
		CreatedAt:  d.CreatedAt,
	}
}
