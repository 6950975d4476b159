package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goccy/go-json"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBooking_Overlaps(t *testing.T) {
	b := Booking{CheckIn: day("2024-07-15"), CheckOut: day("2024-07-18")}

	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"same window", "2024-07-15", "2024-07-18", true},
		{"inside", "2024-07-16", "2024-07-17", true},
		{"starts on checkout day", "2024-07-18", "2024-07-20", false},
		{"ends on checkin day", "2024-07-10", "2024-07-15", false},
		{"covers last night", "2024-07-17", "2024-07-19", true},
		{"before", "2024-07-01", "2024-07-05", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Overlaps(day(tt.start), day(tt.end)))
		})
	}
}

func TestBooking_CoversAndNights(t *testing.T) {
	b := Booking{CheckIn: day("2024-08-01"), CheckOut: day("2024-08-05")}

	assert.Equal(t, 4, b.Nights())
	assert.True(t, b.Covers(day("2024-08-01")))
	assert.True(t, b.Covers(day("2024-08-04").Add(15*time.Hour)))
	assert.False(t, b.Covers(day("2024-08-05")))
	assert.False(t, b.Covers(day("2024-07-31")))
}

func TestFieldDiff_RecordSkipsUnchanged(t *testing.T) {
	d := FieldDiff{}
	d.Record("status", "PENDING", "CONFIRMED")
	d.Record("notes", "x", "x")

	assert.Len(t, d, 1)
	assert.Equal(t, FieldChange{From: "PENDING", To: "CONFIRMED"}, d["status"])
}

func TestFieldDiff_ValueScan(t *testing.T) {
	d := FieldDiff{"guests": {From: "1", To: "2"}}
	v, err := d.Value()
	require.NoError(t, err)

	var out FieldDiff
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, d, out)

	var empty FieldDiff
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
	assert.Error(t, out.Scan(42))
}

func TestRoom_UnderMaintenanceOn(t *testing.T) {
	start := day("2024-09-10").Add(14 * time.Hour)
	end := day("2024-09-12").Add(10 * time.Hour)
	r := Room{MaintenanceStart: &start, MaintenanceEnd: &end}

	assert.False(t, r.UnderMaintenanceOn(day("2024-09-09")))
	assert.True(t, r.UnderMaintenanceOn(day("2024-09-10")))
	assert.True(t, r.UnderMaintenanceOn(day("2024-09-11")))
	assert.True(t, r.UnderMaintenanceOn(day("2024-09-12")))
	assert.False(t, r.UnderMaintenanceOn(day("2024-09-13")))
	assert.False(t, (&Room{}).UnderMaintenanceOn(day("2024-09-10")))
}

func TestRoom_HasAmenities(t *testing.T) {
	r := Room{Amenities: StringList{"wifi", "balcony", "minibar"}}

	assert.True(t, r.HasAmenities(nil))
	assert.True(t, r.HasAmenities([]string{"wifi", "minibar"}))
	assert.False(t, r.HasAmenities([]string{"wifi", "jacuzzi"}))
}

func TestStringList_JSONColumn(t *testing.T) {
	l := StringList{"wifi", "tv"}
	v, err := l.Value()
	require.NoError(t, err)

	var raw []string
	require.NoError(t, json.Unmarshal([]byte(v.(string)), &raw))
	assert.Equal(t, []string{"wifi", "tv"}, raw)

	var out StringList
	require.NoError(t, out.Scan(v))
	assert.Equal(t, l, out)
}

func TestSeasonalModifier_IntersectsInclusive(t *testing.T) {
	m := SeasonalModifier{StartDate: day("2024-07-01"), EndDate: day("2024-07-15")}

	assert.True(t, m.Intersects(day("2024-07-15"), day("2024-07-20")))
	assert.True(t, m.Intersects(day("2024-06-25"), day("2024-07-01")))
	assert.False(t, m.Intersects(day("2024-07-16"), day("2024-07-20")))
	assert.False(t, m.Intersects(day("2024-06-20"), day("2024-06-30")))
}

func TestModifierType_Fraction(t *testing.T) {
	assert.InDelta(t, 0.25, ModifierPercentage.Fraction(25, 200), 1e-9)
	assert.InDelta(t, 0.1, ModifierFixed.Fraction(20, 200), 1e-9)
	assert.Equal(t, 0.0, ModifierFixed.Fraction(20, 0))
}
