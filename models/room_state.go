package models

import "roominventory/constants"

var roomTransitions = map[string][]string{
	constants.RoomStatusAvailable: {
		constants.RoomStatusOccupied,
		constants.RoomStatusMaintenance,
		constants.RoomStatusCleaning,
		constants.RoomStatusBlocked,
	},
	constants.RoomStatusOccupied: {
		constants.RoomStatusCleaning,
		constants.RoomStatusMaintenance,
	},
	constants.RoomStatusCleaning: {
		constants.RoomStatusAvailable,
		constants.RoomStatusMaintenance,
		constants.RoomStatusInspecting,
	},
	constants.RoomStatusMaintenance: {
		constants.RoomStatusAvailable,
		constants.RoomStatusOutOfOrder,
		constants.RoomStatusCleaning,
	},
	constants.RoomStatusOutOfOrder: {
		constants.RoomStatusMaintenance,
		constants.RoomStatusAvailable,
	},
	constants.RoomStatusBlocked: {
		constants.RoomStatusAvailable,
		constants.RoomStatusMaintenance,
	},
	constants.RoomStatusInspecting: {
		constants.RoomStatusAvailable,
		constants.RoomStatusCleaning,
		constants.RoomStatusMaintenance,
	},
	constants.RoomStatusDeepCleaning: {
		constants.RoomStatusInspecting,
		constants.RoomStatusCleaning,
	},
}

// RoomStatuses toàn bộ trạng thái phòng hợp lệ
var RoomStatuses = []string{
	constants.RoomStatusAvailable,
	constants.RoomStatusOccupied,
	constants.RoomStatusCleaning,
	constants.RoomStatusMaintenance,
	constants.RoomStatusOutOfOrder,
	constants.RoomStatusReserved,
	constants.RoomStatusBlocked,
	constants.RoomStatusInspecting,
	constants.RoomStatusDeepCleaning,
}

// CanRoomTransition chỉ true khi target nằm trong bảng chuyển trạng thái của current
func CanRoomTransition(current, target string) bool {
	for _, s := range roomTransitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

func AllowedRoomTargets(current string) []string {
	out := make([]string, len(roomTransitions[current]))
	copy(out, roomTransitions[current])
	return out
}

func IsValidRoomStatus(status string) bool {
	for _, s := range RoomStatuses {
		if s == status {
			return true
		}
	}
	return false
}
