// handlers/notification_routes.go
package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"findplayer/middleware"
	"findplayer/models"
	"findplayer/services"

	"github.com/gofiber/fiber/v2"
)

var (
	// StreamPollInterval is how often the SSE stream checks for new rows.
	StreamPollInterval = 2 * time.Second
	StreamQueryTimeout = 5 * time.Second
)

func SetupNotificationRoutes(router fiber.Router, notifications *services.NotificationService) {
	router.Get("/notifications", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		unreadOnly := c.QueryBool("unread", false)
		userID := middleware.UserID(c)

		list, err := notifications.List(c.UserContext(), userID, unreadOnly, limit)
		if err != nil {
			return respondError(c, err)
		}
		unread, err := notifications.UnreadCount(c.UserContext(), userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"notifications": list, "unread": unread})
	})

	router.Patch("/notifications/:id/read", func(c *fiber.Ctx) error {
		if err := notifications.MarkRead(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// SetupNotificationStream mounts the SSE stream with query-token auth. It must
// be registered before the header-authenticated group.
func SetupNotificationStream(app *fiber.App, notifications *services.NotificationService) {
	app.Get("/notifications/stream", middleware.SSEAuthMiddleware(), func(c *fiber.Ctx) error {
		return streamNotifications(c, notifications)
	})
}

// streamNotifications pushes the caller's new notifications as SSE events.
func streamNotifications(c *fiber.Ctx, notifications *services.NotificationService) error {
	userID := middleware.UserID(c)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(StreamPollInterval)
		defer ticker.Stop()

		cursor := services.StreamCursor{CreatedAt: notifications.Clock.Now().UTC()}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for range ticker.C {
			fresh, err := pollNotifications(notifications, userID, cursor)
			if err != nil {
				log.Printf("SSE query error for user %s: %v", userID, err)
				continue
			}
			if len(fresh) == 0 {
				// Keepalive also detects a disconnected client.
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
				continue
			}
			cursor = cursor.Advance(fresh)

			for _, n := range fresh {
				payload, _ := json.Marshal(n)
				fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			}
			if err := w.Flush(); err != nil {
				// Client disconnected
				return
			}
		}
	})

	return nil
}

// pollNotifications runs one stream query. The request context is gone once
// the handler returns, so each poll gets its own deadline.
func pollNotifications(notifications *services.NotificationService, userID string, cursor services.StreamCursor) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), StreamQueryTimeout)
	defer cancel()
	return notifications.Since(ctx, userID, cursor)
}
