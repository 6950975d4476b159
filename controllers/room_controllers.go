package controllers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"roominventory/dto"
	"roominventory/models"
	"roominventory/response"
)

type RoomStatusUpdater interface {
	UpdateStatus(ctx context.Context, req dto.RoomStatusUpdateRequest) (*models.Room, error)
}

type RoomController struct {
	Rooms RoomStatusUpdater
}

func NewRoomController(rooms RoomStatusUpdater) RoomController {
	return RoomController{Rooms: rooms}
}

// ChangeRoomStatus đổi trạng thái phòng theo bảng chuyển trạng thái
func (rc RoomController) ChangeRoomStatus(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var input struct {
		CurrentStatus        string                    `json:"currentStatus"`
		TargetStatus         string                    `json:"targetStatus"`
		Reason               string                    `json:"reason"`
		MaintenanceWindow    *models.MaintenanceWindow `json:"maintenanceWindow"`
		RequireBusinessHours bool                      `json:"requireBusinessHours"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "Dữ liệu không hợp lệ")
		return
	}

	room, err := rc.Rooms.UpdateStatus(c.Request.Context(), dto.RoomStatusUpdateRequest{
		RoomNumber:           c.Param("number"),
		CurrentStatus:        input.CurrentStatus,
		TargetStatus:         input.TargetStatus,
		Reason:               input.Reason,
		Actor:                actor,
		Timestamp:            time.Now(),
		RequireBusinessHours: input.RequireBusinessHours,
		MaintenanceWindow:    input.MaintenanceWindow,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, room)
}
