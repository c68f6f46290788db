package db

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mini-hyderabad-3d/preprocessor/internal/static/derive"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/output"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/validate"
)

// Store persists preprocessor runs
type Store interface {
	SaveRun(ctx context.Context, snap *Snapshot) error
	// PruneRuns keeps the newest keep runs and returns how many were removed
	PruneRuns(ctx context.Context, keep int) (int, error)
	Runs(ctx context.Context) ([]RunInfo, error)
	Close() error
}

// Snapshot is everything one run produced
type Snapshot struct {
	RunID       string
	GeneratedAt time.Time
	Dataset     *derive.Dataset
	Reports     map[string]*validate.FeedReport
	Manifest    *output.Manifest
	OutputValid bool
}

// RunInfo is one row of the runs table
type RunInfo struct {
	RunID       string
	GeneratedAt time.Time
	FeedCount   int
	StopCount   int
	RouteCount  int
	OutputBytes int
	OutputValid bool
}

// table describes one bulk-loaded table and how to flatten a snapshot into it
type table struct {
	name    string
	columns []string
	rows    func(s *Snapshot) [][]any
}

// runTables are written after the runs row, in order
var runTables = []table{
	{
		name:    "run_feeds",
		columns: []string{"run_id", "agency", "name", "transit_type", "agency_name", "stop_count", "route_count", "has_shapes", "avg_headway_min", "trips_per_hour"},
		rows:    feedRows,
	},
	{
		name:    "run_stops",
		columns: []string{"run_id", "stop_id", "original_id", "agency", "name", "lat", "lon", "transit_type", "route_count", "first_time", "last_time"},
		rows:    stopRows,
	},
	{
		name:    "run_routes",
		columns: []string{"run_id", "route_id", "original_id", "agency", "name", "route_type", "type_name", "color", "text_color", "stop_count", "length_meters", "has_geometry"},
		rows:    routeRows,
	},
	{
		name:    "run_route_stops",
		columns: []string{"run_id", "route_id", "seq", "stop_id", "name"},
		rows:    routeStopRows,
	},
	{
		name:    "run_timetable",
		columns: []string{"run_id", "stop_id", "route_id", "day_type", "times"},
		rows:    timetableRows,
	},
	{
		name:    "run_issues",
		columns: []string{"run_id", "agency", "severity", "file", "message"},
		rows:    issueRows,
	},
	{
		name:    "run_files",
		columns: []string{"run_id", "name", "bytes", "checksum"},
		rows:    fileRows,
	},
}

// childTables are deleted before runs when pruning
func childTables() []string {
	names := make([]string, len(runTables))
	for i, t := range runTables {
		names[i] = t.name
	}
	return names
}

func runRow(s *Snapshot) []any {
	var feeds, stops, routes, bytes int
	if s.Dataset != nil {
		feeds, stops, routes = len(s.Dataset.Feeds), len(s.Dataset.Stops), len(s.Dataset.Routes)
	}
	if s.Manifest != nil {
		bytes = s.Manifest.TotalBytes()
	}
	return []any{s.RunID, s.GeneratedAt.UTC().Format(time.RFC3339), feeds, stops, routes, bytes, s.OutputValid}
}

func feedRows(s *Snapshot) [][]any {
	if s.Dataset == nil {
		return nil
	}
	rows := make([][]any, 0, len(s.Dataset.Feeds))
	for _, f := range s.Dataset.Feeds {
		rows = append(rows, []any{
			s.RunID, f.Agency, f.Name, f.TransitType, f.AgencyName,
			s.Dataset.StopCount(f.Agency), s.Dataset.RouteCount(f.Agency),
			f.HasShapes, f.AvgHeadwayMin, f.TripsPerHour,
		})
	}
	return rows
}

func stopRows(s *Snapshot) [][]any {
	if s.Dataset == nil {
		return nil
	}
	rows := make([][]any, 0, len(s.Dataset.Stops))
	for _, st := range s.Dataset.Stops {
		rows = append(rows, []any{
			s.RunID, st.ID, st.OriginalID, st.Agency, st.Name, st.Lat, st.Lon,
			st.TransitType, st.RouteCount, st.FirstTime, st.LastTime,
		})
	}
	return rows
}

func routeRows(s *Snapshot) [][]any {
	if s.Dataset == nil {
		return nil
	}
	rows := make([][]any, 0, len(s.Dataset.Routes))
	for _, r := range s.Dataset.Routes {
		rows = append(rows, []any{
			s.RunID, r.ID, r.OriginalID, r.Agency, r.Name, r.Type, r.TypeName,
			r.Color, r.TextColor, r.StopCount, r.LengthMeters, r.Geometry != nil,
		})
	}
	return rows
}

func routeStopRows(s *Snapshot) [][]any {
	if s.Dataset == nil {
		return nil
	}
	var rows [][]any
	for _, routeID := range sortedKeys(s.Dataset.RouteStops) {
		for _, ref := range s.Dataset.RouteStops[routeID] {
			rows = append(rows, []any{s.RunID, routeID, ref.Seq, ref.StopID, ref.Name})
		}
	}
	return rows
}

func timetableRows(s *Snapshot) [][]any {
	if s.Dataset == nil {
		return nil
	}
	var rows [][]any
	for _, stopID := range sortedKeys(s.Dataset.Timetable) {
		byRoute := s.Dataset.Timetable[stopID]
		for _, routeID := range sortedKeys(byRoute) {
			days := byRoute[routeID]
			if len(days.Weekday) > 0 {
				rows = append(rows, []any{s.RunID, stopID, routeID, "weekday", strings.Join(days.Weekday, " ")})
			}
			if len(days.Weekend) > 0 {
				rows = append(rows, []any{s.RunID, stopID, routeID, "weekend", strings.Join(days.Weekend, " ")})
			}
		}
	}
	return rows
}

func issueRows(s *Snapshot) [][]any {
	var rows [][]any
	for _, agency := range sortedKeys(s.Reports) {
		report := s.Reports[agency]
		if report == nil {
			continue
		}
		for _, msg := range report.Errors {
			rows = append(rows, []any{s.RunID, agency, "error", "", msg})
		}
		for _, w := range report.Warnings {
			rows = append(rows, []any{s.RunID, agency, string(w.Severity), w.File, w.Message})
		}
	}
	return rows
}

func fileRows(s *Snapshot) [][]any {
	if s.Manifest == nil {
		return nil
	}
	rows := make([][]any, 0, len(s.Manifest.Files))
	for _, f := range s.Manifest.Files {
		rows = append(rows, []any{s.RunID, f.Name, f.Bytes, f.Checksum})
	}
	return rows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
