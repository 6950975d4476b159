package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"roominventory/dto"
	"roominventory/models"
	"roominventory/response"
	"roominventory/utils"
)

type AvailabilitySearcher interface {
	CheckAvailability(ctx context.Context, filter dto.AvailabilityFilter) ([]dto.AvailabilityResult, error)
}

type BookingReader interface {
	Get(ctx context.Context, id string) (*models.Booking, error)
	History(ctx context.Context, id string) ([]models.BookingAudit, error)
}

type RoomHistoryReader interface {
	History(ctx context.Context, roomNumber string) ([]models.RoomStatusAudit, error)
}

// InventoryController chỉ đọc; thay đổi trạng thái đi qua các service trong tiến trình
type InventoryController struct {
	Availability AvailabilitySearcher
	Bookings     BookingReader
	Rooms        RoomHistoryReader
}

func NewInventoryController(availability AvailabilitySearcher, bookings BookingReader, rooms RoomHistoryReader) InventoryController {
	return InventoryController{
		Availability: availability,
		Bookings:     bookings,
		Rooms:        rooms,
	}
}

// GetAvailability tìm phòng trống, ngày theo dạng 2006-01-02
func (ic InventoryController) GetAvailability(c *gin.Context) {
	startDate, err := utils.ParseDate(c.Query("startDate"))
	if err != nil {
		response.BadRequest(c, "invalid startDate")
		return
	}
	endDate, err := utils.ParseDate(c.Query("endDate"))
	if err != nil {
		response.BadRequest(c, "invalid endDate")
		return
	}

	var query struct {
		RoomType  string `form:"roomType"`
		Guests    int    `form:"guests"`
		Amenities string `form:"amenities"`
		Channel   string `form:"channel"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "invalid query")
		return
	}

	filter := dto.AvailabilityFilter{
		StartDate: startDate,
		EndDate:   endDate,
		RoomType:  query.RoomType,
		Guests:    query.Guests,
		Channel:   query.Channel,
	}
	if query.Amenities != "" {
		filter.Amenities = strings.Split(query.Amenities, ",")
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := ic.Availability.CheckAvailability(ctx, filter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithTotal(c, results, len(results))
}

func (ic InventoryController) GetBooking(c *gin.Context) {
	booking, err := ic.Bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, booking)
}

func (ic InventoryController) GetBookingHistory(c *gin.Context) {
	audits, err := ic.Bookings.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithTotal(c, audits, len(audits))
}

func (ic InventoryController) GetRoomHistory(c *gin.Context) {
	audits, err := ic.Rooms.History(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithTotal(c, audits, len(audits))
}
