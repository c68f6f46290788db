package derive

import (
	"sort"
	"strconv"

	"github.com/mini-hyderabad-3d/preprocessor/internal/geo"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

type shapePoint struct {
	coord [2]float64
	seq   int
}

// buildShapes reduces shapes.txt to shape_id -> [lon, lat] points ordered by
// shape_pt_sequence. Rows with an unparseable position or sequence are skipped.
func buildShapes(feed *gtfs.Feed) map[string][][2]float64 {
	if feed.Shapes.Empty() {
		return nil
	}

	points := make(map[string][]shapePoint)
	for _, row := range feed.Shapes.Rows {
		shapeID := row.Get("shape_id")
		if shapeID == "" {
			continue
		}
		lat, lon, ok := parseLatLon(row, "shape_pt_lat", "shape_pt_lon")
		if !ok {
			continue
		}
		seq := 0
		if s := row.Get("shape_pt_sequence"); s != "" {
			var err error
			if seq, err = strconv.Atoi(s); err != nil {
				continue
			}
		}
		points[shapeID] = append(points[shapeID], shapePoint{coord: [2]float64{lon, lat}, seq: seq})
	}

	shapes := make(map[string][][2]float64, len(points))
	for id, pts := range points {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].seq < pts[j].seq })
		coords := make([][2]float64, len(pts))
		for i, p := range pts {
			coords[i] = p.coord
		}
		shapes[id] = coords
	}
	return shapes
}

// routeShapes maps each route to the first shape, in trip table order, that
// exists in shapes. It is not necessarily the representative trip's shape.
func routeShapes(trips tripIndex, shapes map[string][][2]float64) map[string]string {
	out := make(map[string]string)
	if len(shapes) == 0 {
		return out
	}
	for _, tripID := range trips.order {
		routeID := trips.route[tripID]
		if _, done := out[routeID]; done {
			continue
		}
		if shapeID := trips.shape[tripID]; shapeID != "" {
			if _, ok := shapes[shapeID]; ok {
				out[routeID] = shapeID
			}
		}
	}
	return out
}

// stopCoords indexes stop positions as [lon, lat]
func stopCoords(feed *gtfs.Feed) map[string][2]float64 {
	out := make(map[string][2]float64)
	if feed.Stops == nil {
		return out
	}
	for _, row := range feed.Stops.Rows {
		id := row.Get("stop_id")
		if _, dup := out[id]; id == "" || dup {
			continue
		}
		lat, lon, ok := parseLatLon(row, "stop_lat", "stop_lon")
		if !ok {
			continue
		}
		out[id] = [2]float64{lon, lat}
	}
	return out
}

// parseLatLon reads a position from two columns. Values that do not parse
// or fall outside WGS84 ranges, NaN and Inf included, are rejected.
func parseLatLon(row gtfs.Record, latCol, lonCol string) (float64, float64, bool) {
	lat, errLat := strconv.ParseFloat(row.Get(latCol), 64)
	lon, errLon := strconv.ParseFloat(row.Get(lonCol), 64)
	if errLat != nil || errLon != nil || !geo.ValidCoordinate(lat, lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

// resolveGeometry prefers the route's shape and falls back to the positions
// of its representative stops. Fewer than two points yields nil.
func resolveGeometry(shape [][2]float64, stops []StopRef, coords map[string][2]float64) *LineString {
	line := shape
	if line == nil {
		for _, s := range stops {
			if c, ok := coords[s.StopID]; ok {
				line = append(line, c)
			}
		}
	}
	if len(line) < 2 {
		return nil
	}
	if len(line) > geo.SimplifyThreshold {
		line = geo.Simplify(line, geo.SimplifyTolerance)
	}
	return &LineString{Type: "LineString", Coordinates: geo.RoundCoords(line)}
}
