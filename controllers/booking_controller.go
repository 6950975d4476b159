package controllers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"roominventory/dto"
	"roominventory/models"
	"roominventory/response"
	"roominventory/utils"
)

const (
	HeaderActor          = "X-Actor"
	HeaderIdempotencyKey = "Idempotency-Key"
)

type BookingWriter interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error)
	CreateBatch(ctx context.Context, reqs []dto.CreateBookingRequest) ([]*models.Booking, error)
	Update(ctx context.Context, req dto.UpdateBookingRequest) (*models.Booking, error)
	Confirm(ctx context.Context, req dto.BookingActionRequest) (*models.Booking, error)
	Cancel(ctx context.Context, req dto.BookingActionRequest) (*models.Booking, error)
	CheckIn(ctx context.Context, req dto.BookingActionRequest) (*models.Booking, error)
	CheckOut(ctx context.Context, req dto.BookingActionRequest) (*models.Booking, error)
	MarkNoShow(ctx context.Context, req dto.BookingActionRequest) (*models.Booking, error)
}

type BookingController struct {
	Bookings BookingWriter
}

func NewBookingController(bookings BookingWriter) BookingController {
	return BookingController{Bookings: bookings}
}

// bookingInput nhận ngày dạng 2006-01-02
type bookingInput struct {
	GuestID        string `json:"guestId"`
	RoomNumber     string `json:"roomNumber"`
	RateID         string `json:"rateId"`
	Channel        string `json:"channel"`
	CheckIn        string `json:"checkIn"`
	CheckOut       string `json:"checkOut"`
	Guests         int    `json:"guests"`
	Notes          string `json:"notes"`
	InitialStatus  string `json:"initialStatus"`
	IdempotencyKey string `json:"idempotencyKey"`
}

func (in bookingInput) toRequest(actor string) (dto.CreateBookingRequest, string) {
	checkIn, err := utils.ParseDate(in.CheckIn)
	if err != nil {
		return dto.CreateBookingRequest{}, "invalid checkIn"
	}
	checkOut, err := utils.ParseDate(in.CheckOut)
	if err != nil {
		return dto.CreateBookingRequest{}, "invalid checkOut"
	}
	return dto.CreateBookingRequest{
		GuestID:        in.GuestID,
		RoomNumber:     in.RoomNumber,
		RateID:         in.RateID,
		Channel:        in.Channel,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Guests:         in.Guests,
		Actor:          actor,
		IdempotencyKey: in.IdempotencyKey,
		Notes:          in.Notes,
		InitialStatus:  in.InitialStatus,
	}, ""
}

// actorOf lấy người thao tác từ header X-Actor
func actorOf(c *gin.Context) (string, bool) {
	actor := strings.TrimSpace(c.GetHeader(HeaderActor))
	if actor == "" {
		response.BadRequest(c, "missing "+HeaderActor+" header")
		return "", false
	}
	return actor, true
}

// CreateBooking tạo booking; header Idempotency-Key được ưu tiên hơn body
func (bc BookingController) CreateBooking(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var input bookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	if key := c.GetHeader(HeaderIdempotencyKey); key != "" {
		input.IdempotencyKey = key
	}
	req, msg := input.toRequest(actor)
	if msg != "" {
		response.BadRequest(c, msg)
		return
	}

	booking, err := bc.Bookings.Create(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, booking)
}

// CreateBookingBatch tạo nhiều booking, lỗi ở một phần tử thì không tạo gì
func (bc BookingController) CreateBookingBatch(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var inputs []bookingInput
	if err := c.ShouldBindJSON(&inputs); err != nil || len(inputs) == 0 {
		response.BadRequest(c, "invalid body")
		return
	}
	reqs := make([]dto.CreateBookingRequest, len(inputs))
	for i, in := range inputs {
		req, msg := in.toRequest(actor)
		if msg != "" {
			response.BadRequest(c, msg)
			return
		}
		reqs[i] = req
	}

	bookings, err := bc.Bookings.CreateBatch(c.Request.Context(), reqs)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, bookings)
}

func (bc BookingController) UpdateBooking(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var input struct {
		Reason        string  `json:"reason"`
		Status        *string `json:"status"`
		CheckIn       *string `json:"checkIn"`
		CheckOut      *string `json:"checkOut"`
		Guests        *int    `json:"guests"`
		PaymentStatus *string `json:"paymentStatus"`
		Notes         *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}
	req := dto.UpdateBookingRequest{
		BookingID:     c.Param("id"),
		Actor:         actor,
		Reason:        input.Reason,
		Status:        input.Status,
		Guests:        input.Guests,
		PaymentStatus: input.PaymentStatus,
		Notes:         input.Notes,
	}
	if input.CheckIn != nil {
		checkIn, err := utils.ParseDate(*input.CheckIn)
		if err != nil {
			response.BadRequest(c, "invalid checkIn")
			return
		}
		req.CheckIn = &checkIn
	}
	if input.CheckOut != nil {
		checkOut, err := utils.ParseDate(*input.CheckOut)
		if err != nil {
			response.BadRequest(c, "invalid checkOut")
			return
		}
		req.CheckOut = &checkOut
	}

	booking, err := bc.Bookings.Update(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, booking)
}

func (bc BookingController) ConfirmBooking(c *gin.Context) {
	bc.action(c, bc.Bookings.Confirm)
}

func (bc BookingController) CancelBooking(c *gin.Context) {
	bc.action(c, bc.Bookings.Cancel)
}

func (bc BookingController) CheckIn(c *gin.Context) {
	bc.action(c, bc.Bookings.CheckIn)
}

func (bc BookingController) CheckOut(c *gin.Context) {
	bc.action(c, bc.Bookings.CheckOut)
}

func (bc BookingController) MarkNoShow(c *gin.Context) {
	bc.action(c, bc.Bookings.MarkNoShow)
}

type bookingAction func(ctx context.Context, req dto.BookingActionRequest) (*models.Booking, error)

// action xử lý chung cho các endpoint đổi trạng thái; body chỉ có reason và có thể bỏ trống
func (bc BookingController) action(c *gin.Context, do bookingAction) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var input struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BadRequest(c, "invalid body")
			return
		}
	}

	booking, err := do(c.Request.Context(), dto.BookingActionRequest{
		BookingID: c.Param("id"),
		Actor:     actor,
		Reason:    input.Reason,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, booking)
}
