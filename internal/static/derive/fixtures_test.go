package derive

import (
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

var (
	stopCols     = []string{"stop_id", "stop_name", "stop_lat", "stop_lon", "stop_code", "platform_code", "stop_desc"}
	routeCols    = []string{"route_id", "route_short_name", "route_long_name", "route_type", "route_color", "route_text_color", "route_desc"}
	tripCols     = []string{"route_id", "service_id", "trip_id", "shape_id"}
	stopTimeCols = []string{"trip_id", "arrival_time", "departure_time", "stop_id", "stop_sequence"}
	calendarCols = []string{"service_id", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday", "start_date", "end_date"}
	shapeCols    = []string{"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence"}
)

func metroProfile(code string) gtfs.Profile {
	return gtfs.Profile{
		Code:         code,
		Name:         code + " Metro",
		TransitType:  "metro",
		RouteType:    1,
		DefaultColor: "#FF0000",
	}
}

// lineFeed is a small two-route feed. R1 runs S1-S2-S3 on weekdays and a
// short S1-S2 trip at the weekend; R2 calls only at S3.
func lineFeed(code string) *gtfs.Feed {
	return &gtfs.Feed{
		Profile: metroProfile(code),
		Agency:  gtfs.NewTable(gtfs.FileAgency, []string{"agency_id", "agency_name", "agency_timezone"}, []string{code, code + " Transit", "Asia/Kolkata"}),
		Stops: gtfs.NewTable(gtfs.FileStops, stopCols,
			[]string{"S1", "AMEERPET", "17.4374012", "78.4482011", "AMP", "1", "Interchange"},
			[]string{"S2", "  Begumpet   Stn ", "17.4370", "78.4670"},
			[]string{"S3", "Paradise", "17.4440", "78.4870"},
			[]string{"EXIT1", "Ameerpet Exit A", "17.4375", "78.4483"},
		),
		Routes: gtfs.NewTable(gtfs.FileRoutes, routeCols,
			[]string{"R1", "Blue", "Raidurg - Nagole", "1", "0000ff", "", "Corridor III"},
			[]string{"R2", "", "Feeder", "3", "zzz", "000000"},
		),
		Trips: gtfs.NewTable(gtfs.FileTrips, tripCols,
			[]string{"R1", "WK", "T1"},
			[]string{"R1", "WE", "T2"},
			[]string{"R2", "WK", "T3"},
		),
		StopTimes: gtfs.NewTable(gtfs.FileStopTimes, stopTimeCols,
			[]string{"T1", "06:00:00", "06:00:00", "S1", "1"},
			[]string{"T1", "06:05:00", "06:05:00", "S2", "2"},
			[]string{"T1", "25:10:00", "25:10:00", "S3", "3"},
			[]string{"T2", "08:00:00", "08:00:00", "S1", "1"},
			[]string{"T2", "08:05:00", "08:05:00", "S2", "2"},
			[]string{"T3", "07:00:00", "07:00:00", "S3", "1"},
		),
		Calendar: gtfs.NewTable(gtfs.FileCalendar, calendarCols,
			[]string{"WK", "1", "1", "1", "1", "1", "0", "0", "20250101", "20251231"},
			[]string{"WE", "0", "0", "0", "0", "0", "1", "1", "20250101", "20251231"},
		),
		Files: []string{"agency.txt", "stops.txt", "routes.txt", "trips.txt", "stop_times.txt", "calendar.txt"},
	}
}

func stopByID(stops []Stop, id string) (Stop, bool) {
	for _, s := range stops {
		if s.ID == id {
			return s, true
		}
	}
	return Stop{}, false
}

func routeByID(routes []Route, id string) (Route, bool) {
	for _, r := range routes {
		if r.ID == id {
			return r, true
		}
	}
	return Route{}, false
}
