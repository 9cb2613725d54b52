package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom/api/internal/platform/auth"
	"github.com/stockroom/api/internal/platform/httpx"
	"github.com/stockroom/api/internal/services"
)

// NotificationHandlers serves the in-app notification feed for the
// authenticated user.
type NotificationHandlers struct {
	notifications services.NotificationService
}

// NewNotificationHandlers constructs a new NotificationHandlers instance.
func NewNotificationHandlers(notifications services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notifications: notifications}
}

// Routes registers the /notifications endpoints.
func (h *NotificationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listNotifications)
	r.Post("/{notificationID}/read", h.markRead)
	r.Post("/read-all", h.markAllRead)
}

func (h *NotificationHandlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	pager, err := paginationFromRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	filter := services.NotificationListFilter{Pagination: pager}
	if raw := strings.TrimSpace(r.URL.Query().Get("unread")); raw != "" {
		unread, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unread must be a boolean", http.StatusBadRequest))
			return
		}
		filter.UnreadOnly = unread
	}

	page, err := h.notifications.ListForUser(ctx, identity.UID, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]notificationPayload, 0, len(page.Items))
	for _, notification := range page.Items {
		items = append(items, notificationPayload{
			ID:        notification.ID,
			Title:     notification.Title,
			Message:   notification.Message,
			Read:      notification.Read,
			CreatedAt: formatTime(notification.CreatedAt),
		})
	}
	writeJSONResponse(w, http.StatusOK, notificationListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *NotificationHandlers) markRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	notificationID := strings.TrimSpace(chi.URLParam(r, "notificationID"))
	if err := h.notifications.MarkRead(ctx, identity.UID, notificationID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandlers) markAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	count, err := h.notifications.MarkAllRead(ctx, identity.UID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"marked": count})
}

type notificationListResponse struct {
	Items         []notificationPayload `json:"items"`
	NextPageToken string                `json:"next_page_token,omitempty"`
}

type notificationPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}
