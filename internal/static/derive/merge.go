package derive

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mini-hyderabad-3d/preprocessor/internal/metrics"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

// ErrMissingTables is returned by DeriveFeed when a mandatory table is absent
var ErrMissingTables = errors.New("mandatory GTFS tables missing")

// Partial is one feed's derived output. It is not modified after DeriveFeed
// returns.
type Partial struct {
	Info       FeedInfo
	Stops      []Stop
	Routes     []Route
	StopRoutes map[string][]string
	RouteStops map[string][]StopRef
	Timetable  Timetable

	SkippedStops  int
	DroppedStops  int
	SkippedRoutes int
}

// Dataset is the merged output of every successfully derived feed
type Dataset struct {
	Feeds      []FeedInfo
	Stops      []Stop
	Routes     []Route
	StopRoutes map[string][]string
	RouteStops map[string][]StopRef
	Timetable  Timetable
}

// DeriveFeed runs the stop, route and timetable derivations for one feed
func DeriveFeed(feed *gtfs.Feed) (*Partial, error) {
	if missing := feed.MissingRequired(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingTables, strings.Join(missing, ", "))
	}

	log.Printf("Deriving %s (%s)...", feed.Profile.Code, feed.Profile.Name)

	stops := DeriveStops(feed)
	routes := DeriveRoutes(feed)
	timetable := DeriveTimetable(feed)

	freq := metrics.Summarize(timetableHeadways(timetable))

	return &Partial{
		Info: FeedInfo{
			Agency:         feed.Profile.Code,
			Name:           feed.Profile.Name,
			TransitType:    feed.Profile.TransitType,
			DefaultColor:   feed.Profile.DefaultColor,
			AgencyName:     feed.AgencyName(),
			Files:          append([]string(nil), feed.Files...),
			HasShapes:      feed.HasShapes(),
			AvgHeadwayMin:  freq.AvgHeadwayMin,
			TripsPerHour:   freq.TripsPerHour,
			HeadwaySamples: freq.Samples,
		},
		Stops:         stops.Stops,
		Routes:        routes.Routes,
		StopRoutes:    stops.StopRoutes,
		RouteStops:    routes.RouteStops,
		Timetable:     timetable,
		SkippedStops:  stops.Skipped,
		DroppedStops:  stops.Dropped,
		SkippedRoutes: routes.Skipped,
	}, nil
}

// timetableHeadways pools the weekday headways of every stop/route pair
func timetableHeadways(tt Timetable) *metrics.WelfordState {
	total := &metrics.WelfordState{}
	for _, routes := range tt {
		for _, day := range routes {
			minutes := make([]int, len(day.Weekday))
			for i, t := range day.Weekday {
				minutes[i] = TimeToMinutes(t)
			}
			total.Merge(metrics.Headways(minutes))
		}
	}
	return total
}

// Merge combines partial results in order. Keys are namespaced so feeds
// cannot collide; should one ever repeat, the earlier feed's entry is kept.
func Merge(parts ...*Partial) *Dataset {
	ds := &Dataset{
		StopRoutes: make(map[string][]string),
		RouteStops: make(map[string][]StopRef),
		Timetable:  make(Timetable),
	}
	stopSeen := make(map[string]bool)
	routeSeen := make(map[string]bool)

	for _, p := range parts {
		if p == nil {
			continue
		}
		ds.Feeds = append(ds.Feeds, p.Info)

		for _, s := range p.Stops {
			if stopSeen[s.ID] {
				continue
			}
			stopSeen[s.ID] = true
			ds.Stops = append(ds.Stops, s)
		}
		for _, r := range p.Routes {
			if routeSeen[r.ID] {
				continue
			}
			routeSeen[r.ID] = true
			ds.Routes = append(ds.Routes, r)
		}
		for k, v := range p.StopRoutes {
			if _, ok := ds.StopRoutes[k]; !ok {
				ds.StopRoutes[k] = v
			}
		}
		for k, v := range p.RouteStops {
			if _, ok := ds.RouteStops[k]; !ok {
				ds.RouteStops[k] = v
			}
		}
		for stopID, routes := range p.Timetable {
			entry, ok := ds.Timetable[stopID]
			if !ok {
				entry = make(map[string]DayTimes, len(routes))
				ds.Timetable[stopID] = entry
			}
			for routeID, times := range routes {
				if _, ok := entry[routeID]; !ok {
					entry[routeID] = times
				}
			}
		}
	}

	log.Printf("Merged %d feeds: %d stops, %d routes, %d timetable stops",
		len(ds.Feeds), len(ds.Stops), len(ds.Routes), len(ds.Timetable))
	return ds
}

// StopCount returns how many merged stops belong to agency
func (ds *Dataset) StopCount(agency string) int {
	n := 0
	for _, s := range ds.Stops {
		if s.Agency == agency {
			n++
		}
	}
	return n
}

// RouteCount returns how many merged routes belong to agency
func (ds *Dataset) RouteCount(agency string) int {
	n := 0
	for _, r := range ds.Routes {
		if r.Agency == agency {
			n++
		}
	}
	return n
}

// RoutesWithGeometry counts routes that will appear in routes.geojson
func (ds *Dataset) RoutesWithGeometry() int {
	n := 0
	for _, r := range ds.Routes {
		if r.Geometry != nil {
			n++
		}
	}
	return n
}
