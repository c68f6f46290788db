package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mini-hyderabad-3d/preprocessor/internal/static/derive"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/output"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/validate"
)

func testSnapshot(runID string, at time.Time) *Snapshot {
	ds := &derive.Dataset{
		Feeds: []derive.FeedInfo{{Agency: "HMRL", Name: "Hyderabad Metro", TransitType: "metro", AvgHeadwayMin: 5, TripsPerHour: 12}},
		Stops: []derive.Stop{
			{ID: "HMRL_S1", OriginalID: "S1", Name: "Ameerpet", Lat: 17.4375, Lon: 78.4483, Agency: "HMRL", TransitType: "metro", RouteCount: 1, FirstTime: "06:00", LastTime: "22:00"},
			{ID: "HMRL_S2", OriginalID: "S2", Name: "Begumpet", Lat: 17.4435, Lon: 78.4626, Agency: "HMRL", TransitType: "metro", RouteCount: 1},
		},
		Routes: []derive.Route{
			{ID: "HMRL_R1", OriginalID: "R1", Name: "Blue", Type: 1, TypeName: "metro", Agency: "HMRL", Color: "#0000FF", TextColor: "#FFFFFF", StopCount: 2,
				Geometry: &derive.LineString{Type: "LineString", Coordinates: [][2]float64{{78.4483, 17.4375}, {78.4626, 17.4435}}}, LengthMeters: 1650},
		},
		RouteStops: map[string][]derive.StopRef{
			"HMRL_R1": {{StopID: "HMRL_S1", Name: "Ameerpet", Seq: 1}, {StopID: "HMRL_S2", Name: "Begumpet", Seq: 2}},
		},
		Timetable: derive.Timetable{
			"HMRL_S1": {"HMRL_R1": {Weekday: []string{"06:00", "06:05"}, Weekend: []string{"07:00"}}},
		},
	}
	return &Snapshot{
		RunID:       runID,
		GeneratedAt: at,
		Dataset:     ds,
		Reports: map[string]*validate.FeedReport{
			"HMRL": {Agency: "HMRL", Valid: true, Warnings: []validate.Issue{
				{File: "stops.txt", Message: "1 stops have empty names", Severity: validate.SeverityWarning},
			}},
		},
		Manifest: &output.Manifest{RunID: runID, GeneratedAt: at, Files: []output.FileEntry{
			{Name: validate.FileStopsGeoJSON, Bytes: 120, Checksum: "abc"},
			{Name: validate.FileMetadata, Bytes: 80, Checksum: "def"},
		}},
		OutputValid: true,
	}
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.EnsureSchema(context.Background()))
	return db
}

func count(t *testing.T, db *DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.Conn().QueryRow(query, args...).Scan(&n))
	return n
}

func TestSQLite_SaveRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveRun(ctx, testSnapshot("run-1", at)))

	runs, err := db.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunInfo{
		RunID: "run-1", GeneratedAt: at, FeedCount: 1, StopCount: 2, RouteCount: 1, OutputBytes: 200, OutputValid: true,
	}, runs[0])

	assert.Equal(t, 2, count(t, db, "SELECT COUNT(*) FROM run_stops WHERE run_id = ?", "run-1"))
	assert.Equal(t, 2, count(t, db, "SELECT COUNT(*) FROM run_route_stops WHERE run_id = ?", "run-1"))
	assert.Equal(t, 2, count(t, db, "SELECT COUNT(*) FROM run_timetable WHERE run_id = ?", "run-1"))
	assert.Equal(t, 1, count(t, db, "SELECT COUNT(*) FROM run_issues WHERE run_id = ?", "run-1"))
	assert.Equal(t, 2, count(t, db, "SELECT COUNT(*) FROM run_files WHERE run_id = ?", "run-1"))
	assert.Equal(t, 2, count(t, db, "SELECT stop_count FROM run_feeds WHERE agency = ?", "HMRL"))

	var times string
	require.NoError(t, db.Conn().QueryRow(
		"SELECT times FROM run_timetable WHERE stop_id = ? AND day_type = 'weekday'", "HMRL_S1").Scan(&times))
	assert.Equal(t, "06:00 06:05", times)

	var hasGeometry bool
	require.NoError(t, db.Conn().QueryRow("SELECT has_geometry FROM run_routes WHERE route_id = ?", "HMRL_R1").Scan(&hasGeometry))
	assert.True(t, hasGeometry)
}

func TestSQLite_SaveRunAssignsID(t *testing.T) {
	db := openTestDB(t)
	snap := testSnapshot("", time.Now())

	require.NoError(t, db.SaveRun(context.Background(), snap))
	assert.NotEmpty(t, snap.RunID)
}

func TestSQLite_SaveRunDuplicateID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	at := time.Now()

	require.NoError(t, db.SaveRun(ctx, testSnapshot("dup", at)))
	require.Error(t, db.SaveRun(ctx, testSnapshot("dup", at)))

	// the failed run must not leave partial rows behind
	assert.Equal(t, 2, count(t, db, "SELECT COUNT(*) FROM run_stops"))
}

func TestSQLite_PruneRuns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, db.SaveRun(ctx, testSnapshot(id, base.Add(time.Duration(i)*time.Hour))))
	}

	deleted, err := db.PruneRuns(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	runs, err := db.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "d", runs[0].RunID)
	assert.Equal(t, "c", runs[1].RunID)
	assert.Equal(t, 4, count(t, db, "SELECT COUNT(*) FROM run_stops"))

	deleted, err = db.PruneRuns(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestPostgres_SaveRun(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	store, err := ConnectPostgres(ctx, url)
	require.NoError(t, err)
	defer store.Close()

	snap := testSnapshot(NewRunID(), time.Now().Truncate(time.Second))
	require.NoError(t, store.SaveRun(ctx, snap))

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, runs)

	var found bool
	for _, r := range runs {
		if r.RunID == snap.RunID {
			found = true
			assert.Equal(t, 2, r.StopCount)
		}
	}
	assert.True(t, found)
}
