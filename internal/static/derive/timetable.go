package derive

import (
	"log"

	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

var (
	weekdayColumns = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	weekendColumns = []string{"saturday", "sunday"}
)

// ServiceDays classifies service IDs into weekday and weekend buckets. A
// service may be in both or neither.
type ServiceDays struct {
	Weekday map[string]bool
	Weekend map[string]bool
	// Assumed is set when no calendar data classified any service and every
	// trip service was put in both buckets.
	Assumed bool
}

// Classified reports whether the service falls in at least one bucket
func (s ServiceDays) Classified(serviceID string) bool {
	return s.Weekday[serviceID] || s.Weekend[serviceID]
}

// ClassifyServices reads calendar.txt day flags and calendar_dates.txt.
// Services named in calendar_dates.txt count as both weekday and weekend.
func ClassifyServices(feed *gtfs.Feed) ServiceDays {
	days := ServiceDays{Weekday: make(map[string]bool), Weekend: make(map[string]bool)}

	if feed.Calendar != nil {
		for _, row := range feed.Calendar.Rows {
			serviceID := row.Get("service_id")
			if serviceID == "" {
				continue
			}
			if anyDay(row, weekdayColumns) {
				days.Weekday[serviceID] = true
			}
			if anyDay(row, weekendColumns) {
				days.Weekend[serviceID] = true
			}
		}
	}

	if feed.CalendarDates != nil {
		for _, row := range feed.CalendarDates.Rows {
			if serviceID := row.Get("service_id"); serviceID != "" {
				days.Weekday[serviceID] = true
				days.Weekend[serviceID] = true
			}
		}
	}

	if len(days.Weekday) == 0 && len(days.Weekend) == 0 && feed.Trips != nil {
		for _, row := range feed.Trips.Rows {
			serviceID := row.Get("service_id")
			days.Weekday[serviceID] = true
			days.Weekend[serviceID] = true
		}
		days.Assumed = true
		log.Printf("  Warning: no calendar data for %s, assuming all services run daily", feed.Profile.Code)
	}

	return days
}

func anyDay(row gtfs.Record, columns []string) bool {
	for _, col := range columns {
		if row.Get(col) == "1" {
			return true
		}
	}
	return false
}

// DeriveTimetable builds namespaced stop -> route -> weekday/weekend arrival
// times for one feed. Trips with an unclassified service count for both.
func DeriveTimetable(feed *gtfs.Feed) Timetable {
	agency := feed.Profile.Code
	tt := make(Timetable)
	if feed.StopTimes == nil || feed.Trips == nil {
		log.Printf("Warning: no timetable data for %s", agency)
		return tt
	}

	days := ClassifyServices(feed)
	trips := indexTrips(feed)

	type bucket struct{ weekday, weekend timeSet }
	raw := make(map[string]map[string]*bucket)

	joinVisits(feed, trips, func(v visit) {
		if v.time == "" {
			return
		}
		routes := raw[v.stopID]
		if routes == nil {
			routes = make(map[string]*bucket)
			raw[v.stopID] = routes
		}
		b := routes[v.routeID]
		if b == nil {
			b = &bucket{weekday: make(timeSet), weekend: make(timeSet)}
			routes[v.routeID] = b
		}

		service := trips.service[v.tripID]
		if !days.Classified(service) {
			b.weekday.add(v.time)
			b.weekend.add(v.time)
			return
		}
		if days.Weekday[service] {
			b.weekday.add(v.time)
		}
		if days.Weekend[service] {
			b.weekend.add(v.time)
		}
	})

	for stopID, routes := range raw {
		entry := make(map[string]DayTimes, len(routes))
		for routeID, b := range routes {
			entry[Namespace(agency, routeID)] = DayTimes{
				Weekday: b.weekday.sorted(),
				Weekend: b.weekend.sorted(),
			}
		}
		tt[Namespace(agency, stopID)] = entry
	}

	log.Printf("  Processed timetable for %d stops of %s", len(tt), agency)
	return tt
}
