package utils

import (
	"math"
	"time"

	"roominventory/constants"
)

// DateOnly bỏ phần giờ, giữ nguyên ngày/tháng/năm theo UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate đọc ngày dạng 2006-01-02
func ParseDate(s string) (time.Time, error) {
	return time.Parse(constants.DateLayout, s)
}

func FormatDate(t time.Time) string {
	return t.Format(constants.DateLayout)
}

// Nights số đêm giữa check-in và check-out
func Nights(checkIn, checkOut time.Time) int {
	return int(DateOnly(checkOut).Sub(DateOnly(checkIn)).Hours() / 24)
}

// Days liệt kê từng ngày trong [start, end)
func Days(start, end time.Time) []time.Time {
	start, end = DateOnly(start), DateOnly(end)
	var days []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// RangesOverlap so sánh hai khoảng nửa mở [aStart, aEnd) và [bStart, bEnd)
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Round2 làm tròn 2 chữ số thập phân
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
