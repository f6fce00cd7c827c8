package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fablehall/fablehall/server/service/derived"
	"github.com/fablehall/fablehall/store"
)

// ListNotifications handles GET /api/v1/users/:id/notifications.
func (s *APIV1Service) ListNotifications(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	page, pageSize := pageParams(c)
	notifications, err := s.Reader.GetNotificationPage(c.Request().Context(), userID, page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"notifications": notifications, "page": page, "pageSize": pageSize})
}

// CreateNotificationRequest is the JSON body for notification ingestion.
// Dispatch decisions happen upstream; this endpoint only records the result.
type CreateNotificationRequest struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// CreateNotification handles POST /api/v1/users/:id/notifications.
func (s *APIV1Service) CreateNotification(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	request := &CreateNotificationRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.Kind == "" || request.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "kind and message are required")
	}
	ctx := c.Request().Context()
	notification, err := s.Store.CreateNotification(ctx, &store.Notification{
		UserID:  userID,
		Kind:    request.Kind,
		Message: request.Message,
	})
	if err != nil {
		return writeError(c, err)
	}
	s.Invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityNotification, ID: userID, Mutation: derived.MutationCreate})
	return c.JSON(http.StatusCreated, notification)
}

// GetUnreadCount handles GET /api/v1/users/:id/notifications/unread-count.
func (s *APIV1Service) GetUnreadCount(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	count, err := s.Reader.GetUnreadNotificationCount(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"unread": count})
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read.
func (s *APIV1Service) MarkNotificationRead(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	readTs := time.Now().Unix()
	if err := s.Store.UpdateNotification(ctx, &store.UpdateNotification{ID: id, ReadTs: &readTs}); err != nil {
		return writeError(c, err)
	}
	s.Invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityNotification, ID: userID, Mutation: derived.MutationUpdate})
	return c.NoContent(http.StatusNoContent)
}
