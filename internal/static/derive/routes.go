package derive

import (
	"log"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mini-hyderabad-3d/preprocessor/internal/geo"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

// DefaultTextColor is used when route_text_color is absent or invalid
const DefaultTextColor = "#FFFFFF"

// RouteTypeNames labels the basic GTFS route types
var RouteTypeNames = map[int]string{
	0:  "tram",
	1:  "metro",
	2:  "rail",
	3:  "bus",
	4:  "ferry",
	5:  "cable_car",
	6:  "gondola",
	7:  "funicular",
	11: "trolleybus",
	12: "monorail",
}

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// RouteResult is the route half of one feed's derivation
type RouteResult struct {
	Routes []Route
	// RouteStops maps namespaced route ID -> representative stop sequence
	RouteStops map[string][]StopRef
	Skipped    int
}

// ParseColor normalizes a GTFS color to "#RRGGBB", returning fallback for
// absent or invalid values.
func ParseColor(color, fallback string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return fallback
	}
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	if !hexColorRe.MatchString(color) {
		return fallback
	}
	return strings.ToUpper(color)
}

// RouteName picks the display name from the short and long names
func RouteName(short, long string) string {
	short = strings.TrimSpace(short)
	long = strings.TrimSpace(long)
	switch {
	case short != "" && long != "":
		if len(short) < 10 {
			return short + " - " + long
		}
		return long
	case short != "":
		return short
	case long != "":
		return long
	}
	return "Unknown Route"
}

// DeriveRoutes builds the normalized route records of one feed, their
// representative stop sequences and geometry.
func DeriveRoutes(feed *gtfs.Feed) RouteResult {
	agency := feed.Profile.Code
	res := RouteResult{RouteStops: make(map[string][]StopRef)}
	if feed.Routes == nil {
		log.Printf("Warning: no routes data for %s", agency)
		return res
	}

	trips := indexTrips(feed)
	sequences := representativeStops(feed, trips)
	shapes := buildShapes(feed)
	if len(shapes) > 0 {
		log.Printf("  Built %d shapes for %s", len(shapes), agency)
	}
	shapeOf := routeShapes(trips, shapes)
	coords := stopCoords(feed)

	seen := make(map[string]bool)
	withGeometry := 0
	for _, row := range feed.Routes.Rows {
		routeID := row.Get("route_id")
		if routeID == "" || seen[routeID] {
			res.Skipped++
			continue
		}
		seen[routeID] = true

		routeType := feed.Profile.RouteType
		if v, err := strconv.Atoi(row.Get("route_type")); err == nil {
			routeType = v
		}
		typeName, ok := RouteTypeNames[routeType]
		if !ok {
			typeName = feed.Profile.TransitType
		}

		raw := sequences[routeID]
		var shape [][2]float64
		if id, ok := shapeOf[routeID]; ok {
			shape = shapes[id]
		}
		geometry := resolveGeometry(shape, raw, coords)

		refs := make([]StopRef, len(raw))
		stopIDs := make([]string, len(raw))
		for i, s := range raw {
			refs[i] = StopRef{StopID: Namespace(agency, s.StopID), Name: s.Name, Seq: s.Seq}
			stopIDs[i] = refs[i].StopID
		}

		short := row.Get("route_short_name")
		long := row.Get("route_long_name")
		route := Route{
			ID:          Namespace(agency, routeID),
			OriginalID:  routeID,
			Name:        RouteName(short, long),
			ShortName:   short,
			LongName:    long,
			Type:        routeType,
			TypeName:    typeName,
			Agency:      agency,
			Color:       ParseColor(row.Get("route_color"), feed.Profile.DefaultColor),
			TextColor:   ParseColor(row.Get("route_text_color"), DefaultTextColor),
			Stops:       stopIDs,
			StopCount:   len(stopIDs),
			Description: row.Get("route_desc"),
			Geometry:    geometry,
		}
		if geometry != nil {
			route.LengthMeters = geo.LineLength(geometry.Coordinates)
			withGeometry++
		}

		res.Routes = append(res.Routes, route)
		res.RouteStops[route.ID] = refs
	}

	log.Printf("  Processed %d routes for %s (%d with geometry)", len(res.Routes), agency, withGeometry)
	return res
}

type seqRow struct {
	stopID string
	seq    float64
}

// representativeStops picks, per route, the trip with the most stop_times
// rows (first in trip table order on ties) and returns its stops ordered by
// stop_sequence and renumbered from 1. Stop IDs are feed-local.
func representativeStops(feed *gtfs.Feed, trips tripIndex) map[string][]StopRef {
	rows := make(map[string][]seqRow)
	if feed.StopTimes != nil {
		for _, row := range feed.StopTimes.Rows {
			tripID := row.Get("trip_id")
			if _, ok := trips.route[tripID]; !ok {
				continue
			}
			seq, err := strconv.ParseFloat(row.Get("stop_sequence"), 64)
			if err != nil {
				seq = math.NaN()
			}
			rows[tripID] = append(rows[tripID], seqRow{stopID: row.Get("stop_id"), seq: seq})
		}
	}

	best := make(map[string]string)
	for _, tripID := range trips.order {
		n := len(rows[tripID])
		if n == 0 {
			continue
		}
		routeID := trips.route[tripID]
		if cur, ok := best[routeID]; !ok || n > len(rows[cur]) {
			best[routeID] = tripID
		}
	}

	names := make(map[string]string)
	if feed.Stops != nil {
		for _, row := range feed.Stops.Rows {
			id := row.Get("stop_id")
			if _, dup := names[id]; id != "" && !dup {
				names[id] = row.Get("stop_name")
			}
		}
	}

	out := make(map[string][]StopRef, len(best))
	for routeID, tripID := range best {
		trip := append([]seqRow(nil), rows[tripID]...)
		sort.SliceStable(trip, func(i, j int) bool {
			a, b := trip[i].seq, trip[j].seq
			if math.IsNaN(a) || math.IsNaN(b) {
				return !math.IsNaN(a) && math.IsNaN(b)
			}
			return a < b
		})

		refs := make([]StopRef, len(trip))
		for i, r := range trip {
			name := names[r.stopID]
			if name == "" {
				name = r.stopID
			}
			refs[i] = StopRef{StopID: r.stopID, Name: name, Seq: i + 1}
		}
		out[routeID] = refs
	}
	return out
}
