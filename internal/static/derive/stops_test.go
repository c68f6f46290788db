package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

func TestCleanStopName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AMEERPET", "Ameerpet"},
		{"MG BUS STATION", "Mg Bus Station"},
		{"  Begumpet   Stn ", "Begumpet Stn"},
		{"Hitec City", "Hitec City"},
		{"", "Unknown Stop"},
		{"   ", "Unknown Stop"},
		{"123", "123"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanStopName(tt.in))
		})
	}
}

func TestDeriveStops(t *testing.T) {
	res := DeriveStops(lineFeed("HMRL"))

	require.Len(t, res.Stops, 4)
	assert.Equal(t, 0, res.Skipped)

	s1, ok := stopByID(res.Stops, "HMRL_S1")
	require.True(t, ok)
	assert.Equal(t, "S1", s1.OriginalID)
	assert.Equal(t, "Ameerpet", s1.Name)
	assert.Equal(t, 17.4374, s1.Lat)
	assert.Equal(t, 78.4482, s1.Lon)
	assert.Equal(t, "metro", s1.TransitType)
	assert.Equal(t, []string{"HMRL_R1"}, s1.Routes)
	assert.Equal(t, "06:00", s1.FirstTime)
	assert.Equal(t, "08:00", s1.LastTime)
	assert.Equal(t, "AMP", s1.StopCode)
	assert.Equal(t, "1", s1.PlatformCode)
	assert.Equal(t, "Interchange", s1.Description)

	s3, _ := stopByID(res.Stops, "HMRL_S3")
	assert.Equal(t, []string{"HMRL_R1", "HMRL_R2"}, s3.Routes)
	assert.Equal(t, "01:10", s3.FirstTime, "25:10 wraps to early morning")
	assert.Equal(t, "07:00", s3.LastTime)

	exit, _ := stopByID(res.Stops, "HMRL_EXIT1")
	assert.Empty(t, exit.Routes)
	assert.Equal(t, "", exit.FirstTime)
	assert.Equal(t, "", exit.LastTime)

	for _, s := range res.Stops {
		assert.Equal(t, len(s.Routes), s.RouteCount, s.ID)
		assert.Equal(t, s.Routes, res.StopRoutes[s.ID], s.ID)
	}
}

func TestDeriveStops_DropUnserved(t *testing.T) {
	feed := lineFeed("HMRL")
	feed.Profile.DropUnservedStops = true

	res := DeriveStops(feed)

	assert.Len(t, res.Stops, 3)
	assert.Equal(t, 1, res.Dropped)
	_, ok := res.StopRoutes["HMRL_EXIT1"]
	assert.False(t, ok)
}

func TestDeriveStops_SkipsBadRows(t *testing.T) {
	feed := lineFeed("MMTS")
	feed.Stops = gtfs.NewTable(gtfs.FileStops, stopCols,
		[]string{"S1", "Secunderabad", "17.43", "78.50"},
		[]string{"", "No ID", "17.43", "78.50"},
		[]string{"S2", "Bad Lat", "north", "78.50"},
		[]string{"S1", "Duplicate", "17.00", "78.00"},
		[]string{"S3", "Not a Number", "NaN", "78.50"},
		[]string{"S4", "Infinite", "17.43", "Inf"},
		[]string{"S5", "Signed Infinity", "+Infinity", "78.50"},
		[]string{"S6", "Out of Range", "95.0", "78.50"},
	)

	res := DeriveStops(feed)

	require.Len(t, res.Stops, 1)
	assert.Equal(t, "Secunderabad", res.Stops[0].Name)
	assert.Equal(t, 7, res.Skipped)
}

func TestDeriveStops_NoStopsTable(t *testing.T) {
	feed := lineFeed("HMRL")
	feed.Stops = nil

	res := DeriveStops(feed)
	assert.Empty(t, res.Stops)
	assert.NotNil(t, res.StopRoutes)
}

func TestDeriveStops_OrphanRouteIgnored(t *testing.T) {
	feed := lineFeed("HMRL")
	feed.Trips = gtfs.NewTable(gtfs.FileTrips, tripCols,
		[]string{"R1", "WK", "T1"},
		[]string{"GHOST", "WK", "T3"},
	)

	res := DeriveStops(feed)
	s3, _ := stopByID(res.Stops, "HMRL_S3")
	assert.Equal(t, []string{"HMRL_R1"}, s3.Routes)
}
