package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekRange_SundayThroughSaturday(t *testing.T) {
	// 05/03/2025 is a Wednesday.
	wednesday := Date(2025, 3, 5)

	start, end := WeekRange(wednesday)

	assert.Equal(t, time.Sunday, start.Weekday())
	assert.Equal(t, time.Saturday, end.Weekday())
	assert.Equal(t, Date(2025, 3, 2), start)
	assert.Equal(t, Date(2025, 3, 8), end)
}

func TestWeekRange_SundayIsItsOwnStart(t *testing.T) {
	sunday := Date(2025, 3, 2)

	start, _ := WeekRange(sunday)

	assert.Equal(t, sunday, start)
}

func TestTrailingDays_CoversExactlyNDays(t *testing.T) {
	today := Date(2025, 3, 31)

	start, end := TrailingDays(today, 30)

	assert.Equal(t, Date(2025, 3, 2), start)
	assert.Equal(t, today, end)
	assert.Equal(t, 29, int(end.Sub(start).Hours()/24))
}

func TestFormatRecord(t *testing.T) {
	assert.Equal(t, "01/03/2025", FormatRecord(Date(2025, 3, 1)))
	assert.Equal(t, "09/12/2024", FormatRecord(Date(2024, 12, 9)))
}

func TestParseRecord_RoundTrip(t *testing.T) {
	parsed, err := ParseRecord("01/03/2025")
	require.NoError(t, err)

	assert.Equal(t, Date(2025, 3, 1), parsed)
	assert.Equal(t, "01/03/2025", FormatRecord(parsed))
}

func TestParseRecord_RejectsMalformedDates(t *testing.T) {
	for _, value := range []string{"", "2025-03-01", "32/01/2025", "1 Mac 2025"} {
		_, err := ParseRecord(value)
		assert.Error(t, err, "value %q", value)
	}
}

func TestWeekdayName_StorageUsesEnglishNames(t *testing.T) {
	// 01/03/2025 is a Saturday; the sheet stores English weekday names.
	assert.Equal(t, "Saturday", WeekdayName(Date(2025, 3, 1)))
}

func TestWeekdayNameMs(t *testing.T) {
	assert.Equal(t, "Sabtu", WeekdayNameMs(Date(2025, 3, 1)))
	assert.Equal(t, "Ahad", WeekdayNameMs(Date(2025, 3, 2)))
	assert.Equal(t, "Isnin", WeekdayNameMs(Date(2025, 3, 3)))
}

func TestIsSchoolDay(t *testing.T) {
	assert.True(t, IsSchoolDay(Date(2025, 3, 2)))   // Sunday
	assert.True(t, IsSchoolDay(Date(2025, 3, 6)))   // Thursday
	assert.False(t, IsSchoolDay(Date(2025, 3, 7)))  // Friday
	assert.False(t, IsSchoolDay(Date(2025, 3, 8)))  // Saturday
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 28, DaysInMonth(Date(2025, 2, 10)))
	assert.Equal(t, 29, DaysInMonth(Date(2024, 2, 10)))
	assert.Equal(t, 31, DaysInMonth(Date(2025, 3, 1)))
}
