package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/stockroom/api/internal/domain"
	"github.com/stockroom/api/internal/repositories"
)

// AuditLogger receives warnings when an audit write is lost.
type AuditLogger interface {
	Warnf(format string, args ...any)
}

type noopAuditLogger struct{}

func (noopAuditLogger) Warnf(string, ...any) {}

// AuditLogServiceDeps wires the audit trail service dependencies.
type AuditLogServiceDeps struct {
	Repository  repositories.AuditLogRepository
	IDGenerator IDGenerator
	Clock       func() time.Time
	Logger      AuditLogger
}

type auditLogService struct {
	repository repositories.AuditLogRepository
	newID      IDGenerator
	clock      func() time.Time
	logger     AuditLogger
}

// NewAuditLogService constructs the audit trail service.
func NewAuditLogService(deps AuditLogServiceDeps) (AuditLogService, error) {
	if deps.Repository == nil {
		return nil, errors.New("audit log service requires a repository")
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopAuditLogger{}
	}
	return &auditLogService{
		repository: deps.Repository,
		newID:      defaultIDGenerator(deps.IDGenerator),
		clock:      defaultClock(deps.Clock),
		logger:     logger,
	}, nil
}

// Record appends one audit entry. Audit writes are best effort; a failed
// append is logged and never fails the mutation that triggered it.
func (s *auditLogService) Record(ctx context.Context, record AuditLogRecord) {
	occurredAt := record.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.clock().UTC()
	}

	entry := domain.AuditLog{
		ID:         s.newID(),
		ActorID:    record.ActorID,
		Action:     record.Action,
		EntityType: record.EntityType,
		EntityID:   record.EntityID,
		Details:    record.Details,
		CreatedAt:  occurredAt,
	}
	if err := s.repository.Append(ctx, entry); err != nil {
		s.logger.Warnf("audit append failed for %s %s: %v", entry.EntityType, entry.EntityID, err)
	}
}

func (s *auditLogService) List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[domain.AuditLog], error) {
	return s.repository.List(ctx, repositories.AuditLogFilter{
		EntityType: filter.EntityType,
		EntityID:   filter.EntityID,
		ActorID:    filter.ActorID,
		Action:     filter.Action,
		DateRange:  domain.RangeQuery[time.Time]{From: filter.From, To: filter.To},
		Pagination: filter.Pagination,
	})
}
