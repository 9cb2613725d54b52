package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom/api/internal/platform/auth"
	"github.com/stockroom/api/internal/platform/httpx"
	"github.com/stockroom/api/internal/services"
)

// AuditLogHandlers serves the admin-only audit trail.
type AuditLogHandlers struct {
	auditLogs services.AuditLogService
}

// NewAuditLogHandlers constructs a new AuditLogHandlers instance.
func NewAuditLogHandlers(auditLogs services.AuditLogService) *AuditLogHandlers {
	return &AuditLogHandlers{auditLogs: auditLogs}
}

// Routes registers the /audit-logs endpoints.
func (h *AuditLogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Use(auth.RequireRole(auth.RoleAdmin))
	r.Get("/", h.listAuditLogs)
}

func (h *AuditLogHandlers) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auditLogs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("audit_service_unavailable", "audit log service unavailable", http.StatusServiceUnavailable))
		return
	}

	pager, err := paginationFromRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	query := r.URL.Query()
	filter := services.AuditLogFilter{
		EntityType: strings.TrimSpace(query.Get("entity_type")),
		EntityID:   strings.TrimSpace(query.Get("entity_id")),
		ActorID:    strings.TrimSpace(query.Get("actor_id")),
		Action:     strings.ToUpper(strings.TrimSpace(query.Get("action"))),
		Pagination: pager,
	}
	if raw := strings.TrimSpace(query.Get("created_after")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_after must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		filter.From = &ts
	}
	if raw := strings.TrimSpace(query.Get("created_before")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_before must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		filter.To = &ts
	}

	page, err := h.auditLogs.List(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]auditLogPayload, 0, len(page.Items))
	for _, entry := range page.Items {
		items = append(items, auditLogPayload{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			Action:     string(entry.Action),
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Details:    entry.Details,
			CreatedAt:  formatTime(entry.CreatedAt),
		})
	}
	writeJSONResponse(w, http.StatusOK, auditLogListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

type auditLogListResponse struct {
	Items         []auditLogPayload `json:"items"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

type auditLogPayload struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  string         `json:"created_at"`
}
