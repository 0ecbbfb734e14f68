package server

import (
	"log"

	"tutorhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// GetAdminNotifications handles GET /api/admin/notifications
// @Summary List admin notifications
// @Description List withdrawal-request notifications, optionally filtered by status
// @Tags admin
// @Produce json
// @Param status query string false "pending, approved or declined"
// @Success 200 {object} object{notifications=[]models.AdminNotification}
// @Security BearerAuth
// @Router /admin/notifications [get]
func (s *Server) GetAdminNotifications(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	status := models.NotificationStatus(c.Query("status"))

	rows, err := s.notificationService.ListNotifications(c.Context(), status, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": rows})
}

// NotificationsFeedHandler upgrades GET /api/admin/notifications/ws to a
// websocket carrying the live admin notification feed.
func (s *Server) NotificationsFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Unauthorized"))
			_ = conn.Close()
			return
		}

		if s.hub == nil {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "Feed unavailable"))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("admin feed: rejecting connection for user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
