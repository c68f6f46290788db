package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mini-hyderabad-3d/preprocessor/internal/geo"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

var hyderabad = geo.BBox{MinLat: 17.0, MaxLat: 17.8, MinLon: 78.0, MaxLon: 79.0}

func cleanFeed() *gtfs.Feed {
	return &gtfs.Feed{
		Profile: gtfs.Profile{Code: "HMRL"},
		Agency:  gtfs.NewTable(gtfs.FileAgency, []string{"agency_id", "agency_name", "agency_timezone"}, []string{"HMRL", "Metro", "Asia/Kolkata"}),
		Stops: gtfs.NewTable(gtfs.FileStops, []string{"stop_id", "stop_name", "stop_lat", "stop_lon"},
			[]string{"S1", "Ameerpet", "17.43", "78.44"},
			[]string{"S2", "Paradise", "17.44", "78.48"},
		),
		Routes: gtfs.NewTable(gtfs.FileRoutes, []string{"route_id", "route_long_name", "route_type"},
			[]string{"R1", "Blue Line", "1"},
		),
		Trips: gtfs.NewTable(gtfs.FileTrips, []string{"route_id", "service_id", "trip_id"},
			[]string{"R1", "WK", "T1"},
		),
		StopTimes: gtfs.NewTable(gtfs.FileStopTimes, []string{"trip_id", "arrival_time", "departure_time", "stop_id", "stop_sequence"},
			[]string{"T1", "06:00:00", "06:00:00", "S1", "1"},
			[]string{"T1", "06:05:00", "06:05:00", "S2", "2"},
		),
		CalendarDates: gtfs.NewTable(gtfs.FileCalendarDates, []string{"service_id", "date", "exception_type"},
			[]string{"WK", "20250101", "1"},
		),
	}
}

func messages(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, w := range issues {
		out[i] = w.File + ": " + w.Message
	}
	return out
}

func TestValidate_CleanFeed(t *testing.T) {
	r := NewFeedValidator(hyderabad).Validate(cleanFeed())

	assert.True(t, r.Valid)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings, "route_long_name substitutes for route_short_name")
}

func TestValidate_MissingRequiredTables(t *testing.T) {
	feed := cleanFeed()
	feed.Agency = nil
	feed.StopTimes = nil

	r := NewFeedValidator(hyderabad).Validate(feed)

	assert.False(t, r.Valid)
	assert.Equal(t, []string{"Missing required file: agency.txt", "Missing required file: stop_times.txt"}, r.Errors)
}

func TestValidate_Warnings(t *testing.T) {
	feed := cleanFeed()
	feed.Stops = gtfs.NewTable(gtfs.FileStops, []string{"stop_id", "stop_name", "stop_lat", "stop_lon"},
		[]string{"S1", "Ameerpet", "17.43", "78.44"},
		[]string{"S1", "", "17.43", "78.44"},
		[]string{"S3", "Far Away", "12.97", "77.59"},
		[]string{"S4", "Broken", "abc", "78.4"},
		[]string{"S5", "Off Planet", "95", "78.4"},
	)
	feed.Routes = gtfs.NewTable(gtfs.FileRoutes, []string{"route_id", "route_type"},
		[]string{"R1", "1"},
		[]string{"R2", "700"},
	)
	feed.Trips = gtfs.NewTable(gtfs.FileTrips, []string{"route_id", "service_id", "trip_id"},
		[]string{"R1", "WK", "T1"},
		[]string{"RX", "NOCAL", "T2"},
	)
	feed.StopTimes = gtfs.NewTable(gtfs.FileStopTimes, []string{"trip_id", "arrival_time", "departure_time", "stop_id", "stop_sequence"},
		[]string{"T1", "", "06:00:00", "S1", "1"},
		[]string{"T9", "06:05:00", "06:05:00", "S2", "two"},
	)

	r := NewFeedValidator(hyderabad).Validate(feed)
	require.True(t, r.Valid, "warnings never invalidate a feed")

	assert.ElementsMatch(t, []string{
		"routes.txt: Missing columns: route_short_name",
		"stops.txt: 2 stops have invalid coordinates",
		"stops.txt: 1 stops are outside the bounding box",
		"stops.txt: 2 duplicate stop_ids found",
		"stops.txt: 1 stops have empty names",
		"routes.txt: 1 routes have non-standard route_type values",
		"stop_times.txt: 1 records have empty arrival_time",
		"stop_times.txt: 1 records have invalid stop_sequence",
		"stop_times.txt: 1 trips in stop_times not found in trips.txt",
		"trips.txt: 1 routes in trips not found in routes.txt",
		"calendar: 1 service_ids in trips have no calendar entry",
	}, messages(r.Warnings))

	for _, w := range r.Warnings {
		if strings.Contains(w.Message, "bounding box") || strings.Contains(w.Message, "route_type") {
			assert.Equal(t, SeverityInfo, w.Severity, w.Message)
		} else {
			assert.Equal(t, SeverityWarning, w.Severity, w.Message)
		}
	}
}

func TestValidate_NoCalendar(t *testing.T) {
	feed := cleanFeed()
	feed.CalendarDates = nil

	r := NewFeedValidator(geo.BBox{}).Validate(feed)

	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "calendar", r.Warnings[0].File)
	assert.Contains(t, r.Warnings[0].String(), "[WARNING] calendar: Neither calendar.txt nor calendar_dates.txt")
}

func TestValidate_StopsWithoutStopID(t *testing.T) {
	feed := cleanFeed()
	feed.Stops = gtfs.NewTable(gtfs.FileStops, []string{"stop_code", "stop_name", "stop_lat", "stop_lon"},
		[]string{"AMP", "Ameerpet", "17.43", "78.44"},
		[]string{"PDS", "Paradise", "17.44", "78.48"},
	)

	r := NewFeedValidator(hyderabad).Validate(feed)

	assert.Equal(t, []string{"stops.txt: Missing columns: stop_id"}, messages(r.Warnings))
}

func TestValidate_ExpectedShapes(t *testing.T) {
	tests := []struct {
		name      string
		hasShapes bool
		shapes    *gtfs.Table
		wantWarn  bool
	}{
		{"not expected", false, nil, false},
		{"expected and absent", true, nil, true},
		{"expected but empty", true, gtfs.NewTable(gtfs.FileShapes, []string{"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence"}), true},
		{"expected and present", true, gtfs.NewTable(gtfs.FileShapes, []string{"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence"},
			[]string{"SH1", "17.43", "78.44", "1"},
		), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := cleanFeed()
			feed.Profile.HasShapes = tt.hasShapes
			feed.Shapes = tt.shapes

			r := NewFeedValidator(hyderabad).Validate(feed)

			assert.True(t, r.Valid)
			if tt.wantWarn {
				require.Len(t, r.Warnings, 1)
				assert.Equal(t, gtfs.FileShapes, r.Warnings[0].File)
				assert.Equal(t, SeverityWarning, r.Warnings[0].Severity)
			} else {
				assert.Empty(t, r.Warnings)
			}
		})
	}
}

func TestValidateFeeds(t *testing.T) {
	broken := cleanFeed()
	broken.Profile.Code = "MMTS"
	broken.Routes = nil

	reports := ValidateFeeds(NewFeedValidator(hyderabad), []*gtfs.Feed{cleanFeed(), broken})

	require.Len(t, reports, 2)
	assert.True(t, reports["HMRL"].Valid)
	assert.False(t, reports["MMTS"].Valid)
}
