package validate

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mini-hyderabad-3d/preprocessor/internal/geo"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

// Severity of a non-fatal finding
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one non-fatal finding about a feed
type Issue struct {
	File     string
	Message  string
	Severity Severity
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(i.Severity)), i.File, i.Message)
}

// FeedReport is the outcome of validating one feed. Valid is false only
// when Errors is non-empty; warnings never invalidate a feed.
type FeedReport struct {
	Agency   string
	Valid    bool
	Errors   []string
	Warnings []Issue
}

// expectedColumns lists the columns each table should declare
var expectedColumns = []struct {
	file    string
	columns []string
}{
	{gtfs.FileAgency, []string{"agency_id", "agency_name", "agency_timezone"}},
	{gtfs.FileStops, []string{"stop_id", "stop_name", "stop_lat", "stop_lon"}},
	{gtfs.FileRoutes, []string{"route_id", "route_short_name", "route_type"}},
	{gtfs.FileTrips, []string{"route_id", "service_id", "trip_id"}},
	{gtfs.FileStopTimes, []string{"trip_id", "arrival_time", "departure_time", "stop_id", "stop_sequence"}},
	{gtfs.FileCalendar, []string{"service_id", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday", "start_date", "end_date"}},
}

// standardRouteTypes are the basic GTFS route_type values
var standardRouteTypes = map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 11: true, 12: true}

// FeedValidator sanity-checks raw feeds. It never modifies them.
type FeedValidator struct {
	bbox geo.BBox
}

// NewFeedValidator creates a validator that reports stops outside bbox
func NewFeedValidator(bbox geo.BBox) *FeedValidator {
	return &FeedValidator{bbox: bbox}
}

// Validate checks one feed's tables
func (v *FeedValidator) Validate(feed *gtfs.Feed) *FeedReport {
	r := &FeedReport{Agency: feed.Profile.Code}

	for _, name := range feed.MissingRequired() {
		r.Errors = append(r.Errors, "Missing required file: "+name)
	}

	v.checkColumns(r, feed)
	if feed.Stops != nil {
		v.checkStops(r, feed.Stops)
	}
	if feed.Routes != nil {
		v.checkRoutes(r, feed.Routes)
	}
	if feed.StopTimes != nil {
		v.checkStopTimes(r, feed)
	}
	if feed.Trips != nil {
		v.checkTrips(r, feed)
	}
	v.checkCalendar(r, feed)
	if feed.Profile.HasShapes && !feed.HasShapes() {
		r.warn(gtfs.FileShapes, "operator is configured with shapes but shapes.txt is missing or empty")
	}

	r.Valid = len(r.Errors) == 0
	return r
}

func (r *FeedReport) warn(file, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{File: file, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
}

func (r *FeedReport) info(file, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{File: file, Message: fmt.Sprintf(format, args...), Severity: SeverityInfo})
}

func (v *FeedValidator) checkColumns(r *FeedReport, feed *gtfs.Feed) {
	for _, exp := range expectedColumns {
		t := feed.Table(exp.file)
		if t == nil {
			continue
		}
		var missing []string
		for _, col := range exp.columns {
			if t.Has(col) {
				continue
			}
			// route_long_name may stand in for route_short_name
			if exp.file == gtfs.FileRoutes && col == "route_short_name" && t.Has("route_long_name") {
				continue
			}
			missing = append(missing, col)
		}
		if len(missing) > 0 {
			r.warn(exp.file, "Missing columns: %s", strings.Join(missing, ", "))
		}
	}
}

func (v *FeedValidator) checkStops(r *FeedReport, stops *gtfs.Table) {
	invalid, outside, emptyNames := 0, 0, 0
	for _, row := range stops.Rows {
		lat, errLat := strconv.ParseFloat(row.Get("stop_lat"), 64)
		lon, errLon := strconv.ParseFloat(row.Get("stop_lon"), 64)
		switch {
		case errLat != nil || errLon != nil || !geo.ValidCoordinate(lat, lon):
			invalid++
		case !v.bbox.IsZero() && !v.bbox.Contains(lat, lon):
			outside++
		}
		if stops.Has("stop_name") && row.Get("stop_name") == "" {
			emptyNames++
		}
	}

	if invalid > 0 {
		r.warn(gtfs.FileStops, "%d stops have invalid coordinates", invalid)
	}
	if outside > 0 {
		r.info(gtfs.FileStops, "%d stops are outside the bounding box", outside)
	}
	if stops.Has("stop_id") {
		if n := duplicateRows(stops, "stop_id"); n > 0 {
			r.warn(gtfs.FileStops, "%d duplicate stop_ids found", n)
		}
	}
	if emptyNames > 0 {
		r.warn(gtfs.FileStops, "%d stops have empty names", emptyNames)
	}
}

func (v *FeedValidator) checkRoutes(r *FeedReport, routes *gtfs.Table) {
	if routes.Has("route_id") {
		if n := duplicateRows(routes, "route_id"); n > 0 {
			r.warn(gtfs.FileRoutes, "%d duplicate route_ids found", n)
		}
	}
	if routes.Has("route_type") {
		nonStandard := 0
		for _, row := range routes.Rows {
			t, err := strconv.Atoi(row.Get("route_type"))
			if err != nil || !standardRouteTypes[t] {
				nonStandard++
			}
		}
		if nonStandard > 0 {
			r.info(gtfs.FileRoutes, "%d routes have non-standard route_type values", nonStandard)
		}
	}
}

func (v *FeedValidator) checkStopTimes(r *FeedReport, feed *gtfs.Feed) {
	st := feed.StopTimes

	if st.Has("arrival_time") {
		empty := 0
		for _, row := range st.Rows {
			if row.Get("arrival_time") == "" {
				empty++
			}
		}
		if empty > 0 {
			r.warn(gtfs.FileStopTimes, "%d records have empty arrival_time", empty)
		}
	}

	if st.Has("stop_sequence") {
		bad := 0
		for _, row := range st.Rows {
			if _, err := strconv.ParseFloat(row.Get("stop_sequence"), 64); err != nil {
				bad++
			}
		}
		if bad > 0 {
			r.warn(gtfs.FileStopTimes, "%d records have invalid stop_sequence", bad)
		}
	}

	if feed.Trips != nil && st.Has("trip_id") {
		if n := len(orphans(st, "trip_id", feed.Trips, "trip_id")); n > 0 {
			r.warn(gtfs.FileStopTimes, "%d trips in stop_times not found in trips.txt", n)
		}
	}
}

func (v *FeedValidator) checkTrips(r *FeedReport, feed *gtfs.Feed) {
	if feed.Routes != nil && feed.Trips.Has("route_id") {
		if n := len(orphans(feed.Trips, "route_id", feed.Routes, "route_id")); n > 0 {
			r.warn(gtfs.FileTrips, "%d routes in trips not found in routes.txt", n)
		}
	}
}

func (v *FeedValidator) checkCalendar(r *FeedReport, feed *gtfs.Feed) {
	hasCalendar := !feed.Calendar.Empty()
	hasDates := !feed.CalendarDates.Empty()
	if !hasCalendar && !hasDates {
		r.warn("calendar", "Neither calendar.txt nor calendar_dates.txt found - service days unknown")
		return
	}
	if feed.Trips == nil || !feed.Trips.Has("service_id") {
		return
	}

	known := make(map[string]bool)
	for _, t := range []*gtfs.Table{feed.Calendar, feed.CalendarDates} {
		if t == nil {
			continue
		}
		for _, row := range t.Rows {
			known[row.Get("service_id")] = true
		}
	}

	missing := make(map[string]bool)
	for _, row := range feed.Trips.Rows {
		if id := row.Get("service_id"); !known[id] {
			missing[id] = true
		}
	}
	if len(missing) > 0 {
		r.warn("calendar", "%d service_ids in trips have no calendar entry", len(missing))
	}
}

// duplicateRows counts every row whose key value occurs more than once
func duplicateRows(t *gtfs.Table, key string) int {
	counts := make(map[string]int)
	for _, row := range t.Rows {
		counts[row.Get(key)]++
	}
	n := 0
	for _, c := range counts {
		if c > 1 {
			n += c
		}
	}
	return n
}

// orphans returns the distinct values of from.col absent from to.refCol
func orphans(from *gtfs.Table, col string, to *gtfs.Table, refCol string) []string {
	known := make(map[string]bool, to.Len())
	for _, row := range to.Rows {
		known[row.Get(refCol)] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, row := range from.Rows {
		id := row.Get(col)
		if !known[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// ValidateFeeds validates every feed, logging a short summary of each
func ValidateFeeds(v *FeedValidator, feeds []*gtfs.Feed) map[string]*FeedReport {
	reports := make(map[string]*FeedReport, len(feeds))
	for _, feed := range feeds {
		log.Printf("Validating %s...", feed.Profile.Code)
		r := v.Validate(feed)
		reports[r.Agency] = r

		if r.Valid {
			log.Printf("  Validation passed with %d warnings", len(r.Warnings))
		} else {
			log.Printf("  Validation failed with %d errors: %s", len(r.Errors), strings.Join(r.Errors, "; "))
		}
		for i, w := range r.Warnings {
			if i == 5 {
				log.Printf("    ... and %d more warnings", len(r.Warnings)-5)
				break
			}
			log.Printf("    %s", w)
		}
	}
	return reports
}
