package derive

import (
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

// Namespace prefixes a feed-local identifier with its agency code so IDs
// from different feeds never collide in the merged dataset.
func Namespace(agency, id string) string {
	return agency + "_" + id
}

// tripIndex resolves trip IDs to their route and service. Only trips whose
// route is listed in routes.txt are indexed.
type tripIndex struct {
	route   map[string]string
	service map[string]string
	shape   map[string]string
	order   []string
}

func indexTrips(feed *gtfs.Feed) tripIndex {
	idx := tripIndex{
		route:   make(map[string]string),
		service: make(map[string]string),
		shape:   make(map[string]string),
	}
	if feed.Trips == nil {
		return idx
	}

	known := knownRoutes(feed)
	for _, row := range feed.Trips.Rows {
		tripID := row.Get("trip_id")
		routeID := row.Get("route_id")
		if tripID == "" || routeID == "" || !known[routeID] {
			continue
		}
		if _, dup := idx.route[tripID]; dup {
			continue
		}
		idx.route[tripID] = routeID
		idx.service[tripID] = row.Get("service_id")
		if shapeID := row.Get("shape_id"); shapeID != "" {
			idx.shape[tripID] = shapeID
		}
		idx.order = append(idx.order, tripID)
	}
	return idx
}

func knownRoutes(feed *gtfs.Feed) map[string]bool {
	known := make(map[string]bool)
	if feed.Routes == nil {
		return known
	}
	for _, row := range feed.Routes.Rows {
		if id := row.Get("route_id"); id != "" {
			known[id] = true
		}
	}
	return known
}

// visit is one usable stop_times row joined to its route
type visit struct {
	stopID  string
	tripID  string
	routeID string
	time    string
}

// joinVisits walks stop_times in table order and yields rows whose trip
// resolves to a known route. time is the normalized arrival time, "" when
// absent or malformed.
func joinVisits(feed *gtfs.Feed, trips tripIndex, fn func(visit)) {
	if feed.StopTimes == nil {
		return
	}
	for _, row := range feed.StopTimes.Rows {
		stopID := row.Get("stop_id")
		tripID := row.Get("trip_id")
		if stopID == "" || tripID == "" {
			continue
		}
		routeID, ok := trips.route[tripID]
		if !ok {
			continue
		}
		fn(visit{
			stopID:  stopID,
			tripID:  tripID,
			routeID: routeID,
			time:    NormalizeTime(row.Get("arrival_time")),
		})
	}
}
