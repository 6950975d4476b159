package validator

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"roominventory/dto"
	"roominventory/errors"
	"roominventory/models"
	"roominventory/utils"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("roomstatus", func(fl validator.FieldLevel) bool {
		return models.IsValidRoomStatus(fl.Field().String())
	})
	_ = v.RegisterValidation("bookingstatus", func(fl validator.FieldLevel) bool {
		return models.IsValidBookingStatus(fl.Field().String())
	})
	return v
}

// ValidateStruct kiểm tra struct theo tag `validate`
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewAppError(errors.ErrCodeValidation, "invalid input", err)
	}
	appErr := errors.Validation("invalid input")
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		appErr.With(fe.Field(), fe.Tag())
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	appErr.Message = "invalid input: " + strings.Join(msgs, ", ")
	return appErr
}

// ValidateDateRange checkIn phải trước checkOut (tính theo ngày)
func ValidateDateRange(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return errors.Validation("check-in and check-out dates are required")
	}
	if !utils.DateOnly(checkIn).Before(utils.DateOnly(checkOut)) {
		return errors.Validation("check-in must be before check-out").
			With("checkIn", utils.FormatDate(checkIn)).
			With("checkOut", utils.FormatDate(checkOut))
	}
	return nil
}

// ValidateSearchRange không cho tìm kiếm ngày trong quá khứ (sớm hơn hôm qua)
func ValidateSearchRange(start, end, now time.Time) error {
	if err := ValidateDateRange(start, end); err != nil {
		return err
	}
	yesterday := utils.DateOnly(now).AddDate(0, 0, -1)
	if utils.DateOnly(start).Before(yesterday) {
		return errors.Validation("start date must not be earlier than yesterday").
			With("startDate", utils.FormatDate(start))
	}
	return nil
}

func ValidateOccupancy(pct float64) error {
	if pct < 0 || pct > 100 {
		return errors.Validation("occupancy must be between 0 and 100").
			With("occupancyPct", fmt.Sprintf("%g", pct))
	}
	return nil
}

// ValidateMaintenanceWindow start >= now và end > start
func ValidateMaintenanceWindow(w *models.MaintenanceWindow, now time.Time) error {
	if w == nil {
		return errors.BusinessRule("maintenance window is required for MAINTENANCE")
	}
	if w.Start.Before(now) {
		return errors.BusinessRule("maintenance window must not start in the past").
			With("start", w.Start.Format(time.RFC3339))
	}
	if !w.End.After(w.Start) {
		return errors.BusinessRule("maintenance window must end after it starts").
			With("start", w.Start.Format(time.RFC3339)).
			With("end", w.End.Format(time.RFC3339))
	}
	return nil
}

func ValidateCreateBooking(req *dto.CreateBookingRequest) error {
	if err := ValidateDateRange(req.CheckIn, req.CheckOut); err != nil {
		return err
	}
	return ValidateStruct(req)
}

func ValidateRoomStatusUpdate(req *dto.RoomStatusUpdateRequest) error {
	return ValidateStruct(req)
}

func ValidateAvailabilityFilter(f *dto.AvailabilityFilter, now time.Time) error {
	if err := ValidateSearchRange(f.StartDate, f.EndDate, now); err != nil {
		return err
	}
	return ValidateStruct(f)
}
