package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roominventory/constants"
	"roominventory/dto"
	"roominventory/errors"
	"roominventory/models"
)

func date(s string) time.Time {
	t, err := time.Parse(constants.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestValidateDateRange(t *testing.T) {
	assert.NoError(t, ValidateDateRange(date("2024-07-15"), date("2024-07-16")))

	err := ValidateDateRange(date("2024-07-15"), date("2024-07-15"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	err = ValidateDateRange(date("2024-07-16"), date("2024-07-15"))
	require.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	assert.Equal(t, "2024-07-16", errors.GetAppError(err).Details["checkIn"])

	assert.Error(t, ValidateDateRange(time.Time{}, date("2024-07-15")))
}

func TestValidateSearchRange_RejectsHistoricalStart(t *testing.T) {
	now := date("2024-07-15").Add(9 * time.Hour)

	assert.NoError(t, ValidateSearchRange(date("2024-07-14"), date("2024-07-16"), now))
	assert.NoError(t, ValidateSearchRange(date("2024-07-15"), date("2024-07-16"), now))

	err := ValidateSearchRange(date("2024-07-13"), date("2024-07-16"), now)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestValidateOccupancy(t *testing.T) {
	for _, pct := range []float64{0, 50, 100} {
		assert.NoError(t, ValidateOccupancy(pct), pct)
	}
	for _, pct := range []float64{-0.1, 100.5} {
		assert.True(t, errors.HasCode(ValidateOccupancy(pct), errors.ErrCodeValidation), pct)
	}
}

func TestValidateMaintenanceWindow(t *testing.T) {
	now := date("2024-07-15").Add(10 * time.Hour)

	tests := []struct {
		name    string
		window  *models.MaintenanceWindow
		wantErr bool
	}{
		{"missing", nil, true},
		{"starts in the past", &models.MaintenanceWindow{Start: now.Add(-time.Minute), End: now.Add(time.Hour)}, true},
		{"end before start", &models.MaintenanceWindow{Start: now.Add(2 * time.Hour), End: now.Add(time.Hour)}, true},
		{"empty window", &models.MaintenanceWindow{Start: now.Add(time.Hour), End: now.Add(time.Hour)}, true},
		{"starts now", &models.MaintenanceWindow{Start: now, End: now.Add(time.Hour)}, false},
		{"future", &models.MaintenanceWindow{Start: now.Add(24 * time.Hour), End: now.Add(48 * time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMaintenanceWindow(tt.window, now)
			if tt.wantErr {
				assert.True(t, errors.HasCode(err, errors.ErrCodeBusinessRule))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateCreateBooking(t *testing.T) {
	valid := dto.CreateBookingRequest{
		GuestID:    "guest-1",
		RoomNumber: "101",
		CheckIn:    date("2024-07-15"),
		CheckOut:   date("2024-07-18"),
		Guests:     2,
		Actor:      "frontdesk",
	}
	require.NoError(t, ValidateCreateBooking(&valid))

	noGuests := valid
	noGuests.Guests = 0
	err := ValidateCreateBooking(&noGuests)
	require.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	assert.Contains(t, errors.GetAppError(err).Details, "Guests")

	noActor := valid
	noActor.Actor = ""
	assert.True(t, errors.HasCode(ValidateCreateBooking(&noActor), errors.ErrCodeValidation))

	reversed := valid
	reversed.CheckIn, reversed.CheckOut = valid.CheckOut, valid.CheckIn
	assert.True(t, errors.HasCode(ValidateCreateBooking(&reversed), errors.ErrCodeValidation))
}

func TestValidateRoomStatusUpdate_CustomTags(t *testing.T) {
	req := dto.RoomStatusUpdateRequest{
		RoomNumber:   "101",
		TargetStatus: constants.RoomStatusCleaning,
		Reason:       constants.ReasonCleaningRequired,
		Actor:        "housekeeping",
	}
	require.NoError(t, ValidateRoomStatusUpdate(&req))

	req.TargetStatus = "DIRTY"
	err := ValidateRoomStatusUpdate(&req)
	require.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	assert.Equal(t, "roomstatus", errors.GetAppError(err).Details["TargetStatus"])

	req.TargetStatus = constants.RoomStatusCleaning
	req.CurrentStatus = "DIRTY"
	assert.Error(t, ValidateRoomStatusUpdate(&req))
}

func TestValidateStruct_BookingStatusTag(t *testing.T) {
	bad := "ARCHIVED"
	req := dto.UpdateBookingRequest{BookingID: "b1", Actor: "ops", Status: &bad}
	err := ValidateStruct(&req)
	require.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	assert.Equal(t, "bookingstatus", errors.GetAppError(err).Details["Status"])

	ok := constants.BookingStatusConfirmed
	req.Status = &ok
	assert.NoError(t, ValidateStruct(&req))
}

func TestValidateAvailabilityFilter(t *testing.T) {
	now := date("2024-07-10")
	f := dto.AvailabilityFilter{StartDate: date("2024-07-15"), EndDate: date("2024-07-18"), Guests: 2}
	assert.NoError(t, ValidateAvailabilityFilter(&f, now))

	f.Guests = -1
	assert.Error(t, ValidateAvailabilityFilter(&f, now))

	f.Guests = 1
	f.EndDate = f.StartDate
	assert.Error(t, ValidateAvailabilityFilter(&f, now))
}
