package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

func TestClassifyServices(t *testing.T) {
	feed := lineFeed("HMRL")
	feed.Calendar = gtfs.NewTable(gtfs.FileCalendar, calendarCols,
		[]string{"WK", "1", "1", "1", "1", "1", "0", "0"},
		[]string{"SAT", "0", "0", "0", "0", "0", "1", "0"},
		[]string{"ALL", "1", "1", "1", "1", "1", "1", "1"},
		[]string{"NONE", "0", "0", "0", "0", "0", "0", "0"},
	)
	feed.CalendarDates = gtfs.NewTable(gtfs.FileCalendarDates, []string{"service_id", "date", "exception_type"},
		[]string{"HOLIDAY", "20250815", "1"},
	)

	days := ClassifyServices(feed)

	assert.True(t, days.Weekday["WK"])
	assert.False(t, days.Weekend["WK"])
	assert.False(t, days.Weekday["SAT"])
	assert.True(t, days.Weekend["SAT"])
	assert.True(t, days.Weekday["ALL"] && days.Weekend["ALL"])
	assert.False(t, days.Classified("NONE"))
	assert.True(t, days.Weekday["HOLIDAY"] && days.Weekend["HOLIDAY"])
	assert.False(t, days.Assumed)
}

func TestClassifyServices_NoCalendarData(t *testing.T) {
	feed := lineFeed("HMRL")
	feed.Calendar = nil

	days := ClassifyServices(feed)

	assert.True(t, days.Assumed)
	for _, id := range []string{"WK", "WE"} {
		assert.True(t, days.Weekday[id], id)
		assert.True(t, days.Weekend[id], id)
	}
}

func TestDeriveTimetable(t *testing.T) {
	tt := DeriveTimetable(lineFeed("HMRL"))

	require.Contains(t, tt, "HMRL_S1")
	assert.Equal(t, DayTimes{Weekday: []string{"06:00"}, Weekend: []string{"08:00"}}, tt["HMRL_S1"]["HMRL_R1"])
	assert.Equal(t, DayTimes{Weekday: []string{"01:10"}, Weekend: []string{}}, tt["HMRL_S3"]["HMRL_R1"])
	assert.Equal(t, DayTimes{Weekday: []string{"07:00"}, Weekend: []string{}}, tt["HMRL_S3"]["HMRL_R2"])
	assert.NotContains(t, tt, "HMRL_EXIT1")
}

func TestDeriveTimetable_SortingAndUnknownService(t *testing.T) {
	feed := lineFeed("HMRL")
	feed.Trips = gtfs.NewTable(gtfs.FileTrips, tripCols,
		[]string{"R1", "WK", "T1"},
		[]string{"R1", "MYSTERY", "T2"},
	)
	feed.StopTimes = gtfs.NewTable(gtfs.FileStopTimes, stopTimeCols,
		[]string{"T1", "23:50:00", "", "S1", "1"},
		[]string{"T1", "24:15:00", "", "S1", "2"},
		[]string{"T1", "12:00:00", "", "S1", "3"},
		[]string{"T1", "12:00:00", "", "S1", "4"},
		[]string{"T1", "", "12:30:00", "S1", "5"},
		[]string{"T1", "bogus", "", "S1", "6"},
		[]string{"T2", "09:00:00", "", "S1", "1"},
	)

	tt := DeriveTimetable(feed)

	assert.Equal(t, []string{"00:15", "09:00", "12:00", "23:50"}, tt["HMRL_S1"]["HMRL_R1"].Weekday)
	assert.Equal(t, []string{"09:00"}, tt["HMRL_S1"]["HMRL_R1"].Weekend, "unclassified services count for both")
}

func TestDeriveTimetable_MissingTables(t *testing.T) {
	feed := lineFeed("HMRL")
	feed.StopTimes = nil
	assert.Empty(t, DeriveTimetable(feed))
}
