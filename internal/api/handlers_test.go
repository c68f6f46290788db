package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mini-hyderabad-3d/preprocessor/internal/static/derive"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/output"
)

func setupTestServer(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()

	ds := &derive.Dataset{
		Feeds: []derive.FeedInfo{{Agency: "HMRL", Name: "Hyderabad Metro", TransitType: "metro"}},
		Stops: []derive.Stop{
			{ID: "HMRL_S1", OriginalID: "S1", Name: "Ameerpet", Lat: 17.4375, Lon: 78.4483, Agency: "HMRL", TransitType: "metro", Routes: []string{"HMRL_R1"}, RouteCount: 1},
			{ID: "HMRL_S2", OriginalID: "S2", Name: "Begumpet", Lat: 17.4435, Lon: 78.4626, Agency: "HMRL", TransitType: "metro", Routes: []string{"HMRL_R1"}, RouteCount: 1},
		},
		Routes: []derive.Route{
			{ID: "HMRL_R1", OriginalID: "R1", Name: "Blue", Type: 1, TypeName: "metro", Agency: "HMRL", Color: "#0000FF", TextColor: "#FFFFFF", Stops: []string{"HMRL_S1", "HMRL_S2"}, StopCount: 2},
		},
		StopRoutes: map[string][]string{"HMRL_S1": {"HMRL_R1"}, "HMRL_S2": {"HMRL_R1"}},
		RouteStops: map[string][]derive.StopRef{
			"HMRL_R1": {{StopID: "HMRL_S2", Name: "Begumpet", Seq: 2}, {StopID: "HMRL_S1", Name: "Ameerpet", Seq: 1}},
		},
		Timetable: derive.Timetable{
			"HMRL_S1": {"HMRL_R1": {Weekday: []string{"06:00", "06:10"}, Weekend: []string{}}},
		},
	}
	w := &output.Writer{
		Dir:      dir,
		Region:   output.Region{City: "Hyderabad", Center: [2]float64{17.385, 78.4867}, DefaultZoom: 11},
		Profiles: []gtfs.Profile{{Code: "HMRL", Name: "Hyderabad Metro", TransitType: "metro", RouteType: 1}},
	}
	_, err := w.WriteAll(ds, "run-123")
	require.NoError(t, err)

	loaded, err := LoadDataset(dir)
	require.NoError(t, err)
	return NewRouter(NewHandler(loaded), nil)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	srv := setupTestServer(t)

	rec := get(t, srv, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "run-123", body["run_id"])
	assert.Equal(t, float64(2), body["stops"])
}

func TestGetMetadata(t *testing.T) {
	srv := setupTestServer(t)

	rec := get(t, srv, "/api/metadata")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var md output.Metadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &md))
	assert.Equal(t, "Hyderabad", md.City)
	assert.Equal(t, 2, md.Totals.Stops)
}

func TestGetStopRoutes(t *testing.T) {
	srv := setupTestServer(t)

	rec := get(t, srv, "/api/stops/HMRL_S1/routes")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StopRoutesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"HMRL_R1"}, resp.Routes)
	assert.Equal(t, 1, resp.Count)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/stops/S1/routes").Code)
}

func TestGetStopTimetable(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantLen  int
	}{
		{"all routes", "/api/stops/HMRL_S1/timetable", http.StatusOK, 1},
		{"route filter", "/api/stops/HMRL_S1/timetable?route_id=HMRL_R1", http.StatusOK, 1},
		{"unknown route", "/api/stops/HMRL_S1/timetable?route_id=HMRL_R9", http.StatusNotFound, 0},
		{"stop without times", "/api/stops/HMRL_S2/timetable", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, tt.path)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp StopTimetableResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Routes, tt.wantLen)
			assert.Equal(t, []string{"06:00", "06:10"}, resp.Routes["HMRL_R1"].Weekday)
		})
	}
}

func TestGetRouteStops(t *testing.T) {
	srv := setupTestServer(t)

	rec := get(t, srv, "/api/routes/HMRL_R1/stops")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RouteStopsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Stops, 2)
	assert.Equal(t, "HMRL_S1", resp.Stops[0].StopID)
	assert.Equal(t, 2, resp.Count)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/routes/nope/stops").Code)
}

func TestStaticFiles(t *testing.T) {
	srv := setupTestServer(t)

	rec := get(t, srv, "/data/stops.geojson")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "FeatureCollection")
}

func TestLoadDataset_Missing(t *testing.T) {
	_, err := LoadDataset(t.TempDir())
	require.Error(t, err)
}
