package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"roominventory/controllers"
)

// ReadinessCheck trả về lỗi khi một phụ thuộc chưa sẵn sàng
type ReadinessCheck func(ctx context.Context) error

// Handlers gom các controller được gắn vào router
type Handlers struct {
	Inventory controllers.InventoryController
	Bookings  controllers.BookingController
	Rooms     controllers.RoomController
}

func SetupRoutes(router *gin.Engine, h Handlers, checks map[string]ReadinessCheck) {
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	router.GET("/readyz", readyHandler(checks))

	v1 := router.Group("/api/v1")
	v1.GET("/availability", h.Inventory.GetAvailability)
	v1.GET("/bookings/:id", h.Inventory.GetBooking)
	v1.GET("/bookings/:id/history", h.Inventory.GetBookingHistory)
	v1.GET("/rooms/:number/history", h.Inventory.GetRoomHistory)

	bookings := v1.Group("/bookings")
	bookings.POST("", h.Bookings.CreateBooking)
	bookings.POST("/batch", h.Bookings.CreateBookingBatch)
	bookings.PATCH("/:id", h.Bookings.UpdateBooking)
	bookings.POST("/:id/confirm", h.Bookings.ConfirmBooking)
	bookings.POST("/:id/cancel", h.Bookings.CancelBooking)
	bookings.POST("/:id/check-in", h.Bookings.CheckIn)
	bookings.POST("/:id/check-out", h.Bookings.CheckOut)
	bookings.POST("/:id/no-show", h.Bookings.MarkNoShow)

	v1.PATCH("/rooms/:number/status", h.Rooms.ChangeRoomStatus)
}

func readyHandler(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
