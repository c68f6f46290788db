package derive

import (
	"log"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mini-hyderabad-3d/preprocessor/internal/geo"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// StopResult is the stop half of one feed's derivation
type StopResult struct {
	Stops []Stop
	// StopRoutes maps namespaced stop ID -> sorted namespaced route IDs
	StopRoutes map[string][]string
	Skipped    int
	Dropped    int
}

// CleanStopName trims and collapses whitespace and title-cases names given
// in all capitals.
func CleanStopName(name string) string {
	name = whitespaceRe.ReplaceAllString(strings.TrimSpace(name), " ")
	if name == "" {
		return "Unknown Stop"
	}
	if strings.ToUpper(name) == name && strings.ToLower(name) != name {
		name = cases.Title(language.Und).String(name)
	}
	return name
}

// DeriveStops builds the normalized stop records of one feed and the
// stop -> serving routes index.
func DeriveStops(feed *gtfs.Feed) StopResult {
	agency := feed.Profile.Code
	res := StopResult{StopRoutes: make(map[string][]string)}
	if feed.Stops == nil {
		log.Printf("Warning: no stops data for %s", agency)
		return res
	}

	trips := indexTrips(feed)
	served := make(map[string]map[string]bool)
	times := make(map[string]timeSet)
	joinVisits(feed, trips, func(v visit) {
		if served[v.stopID] == nil {
			served[v.stopID] = make(map[string]bool)
			times[v.stopID] = make(timeSet)
		}
		served[v.stopID][v.routeID] = true
		times[v.stopID].add(v.time)
	})

	seen := make(map[string]bool)
	for _, row := range feed.Stops.Rows {
		stopID := row.Get("stop_id")
		if stopID == "" || seen[stopID] {
			res.Skipped++
			continue
		}
		lat, lon, ok := parseLatLon(row, "stop_lat", "stop_lon")
		if !ok {
			res.Skipped++
			continue
		}
		seen[stopID] = true

		routes := make([]string, 0, len(served[stopID]))
		for routeID := range served[stopID] {
			routes = append(routes, routeID)
		}
		sort.Strings(routes)

		if len(routes) == 0 && feed.Profile.DropUnservedStops {
			res.Dropped++
			continue
		}

		namespaced := make([]string, len(routes))
		for i, r := range routes {
			namespaced[i] = Namespace(agency, r)
		}

		stop := Stop{
			ID:           Namespace(agency, stopID),
			OriginalID:   stopID,
			Name:         CleanStopName(row.Get("stop_name")),
			Lat:          geo.Round(lat, geo.Precision),
			Lon:          geo.Round(lon, geo.Precision),
			Agency:       agency,
			TransitType:  feed.Profile.TransitType,
			Routes:       namespaced,
			RouteCount:   len(namespaced),
			StopCode:     row.Get("stop_code"),
			PlatformCode: row.Get("platform_code"),
			Description:  row.Get("stop_desc"),
		}
		if sorted := times[stopID].sorted(); len(sorted) > 0 {
			stop.FirstTime = sorted[0]
			stop.LastTime = sorted[len(sorted)-1]
		}

		res.Stops = append(res.Stops, stop)
		res.StopRoutes[stop.ID] = namespaced
	}

	log.Printf("  Processed %d stops for %s, skipped %d, dropped %d unserved",
		len(res.Stops), agency, res.Skipped, res.Dropped)
	return res
}
