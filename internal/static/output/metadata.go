package output

import (
	"math"
	"strconv"
	"time"

	"github.com/mini-hyderabad-3d/preprocessor/internal/static/derive"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/validate"
)

// Version of the output document format
const Version = "1.0.0"

// Region holds the map defaults written to metadata.json
type Region struct {
	City        string
	Center      [2]float64 // lat, lon
	DefaultZoom int
}

// Metadata is the metadata.json document
type Metadata struct {
	GeneratedAt    string                  `json:"generated_at"`
	Version        string                  `json:"version"`
	RunID          string                  `json:"run_id"`
	City           string                  `json:"city"`
	Center         [2]float64              `json:"center"`
	DefaultZoom    int                     `json:"default_zoom"`
	Totals         Totals                  `json:"totals"`
	Agencies       map[string]AgencyStats  `json:"agencies"`
	TransitTypes   map[string]TransitStats `json:"transit_types"`
	RouteTypeNames map[string]string       `json:"route_type_names"`
	Files          map[string]string       `json:"files"`
	Checksums      map[string]string       `json:"checksums,omitempty"`
}

// Totals counts the merged dataset
type Totals struct {
	Stops              int `json:"stops"`
	Routes             int `json:"routes"`
	RoutesWithGeometry int `json:"routes_with_geometry"`
}

// AgencyStats summarizes one configured operator. Operators whose feed
// failed are listed with zero counts.
type AgencyStats struct {
	Name           string   `json:"name"`
	TransitType    string   `json:"transit_type"`
	StopCount      int      `json:"stop_count"`
	RouteCount     int      `json:"route_count"`
	ColorDefault   string   `json:"color_default"`
	FilesAvailable []string `json:"files_available,omitempty"`
	HasShapes      bool     `json:"has_shapes"`
	AgencyName     string   `json:"agency_name,omitempty"`
	AvgHeadwayMin  float64  `json:"avg_headway_min,omitempty"`
	TripsPerHour   float64  `json:"trips_per_hour,omitempty"`
}

// TransitStats summarizes one transit type
type TransitStats struct {
	StopCount  int     `json:"stop_count"`
	RouteCount int     `json:"route_count"`
	LengthKm   float64 `json:"length_km"`
}

// FileNames maps manifest keys to output document names
var FileNames = map[string]string{
	"stops":          validate.FileStopsGeoJSON,
	"routes":         validate.FileRoutesGeoJSON,
	"stop_to_routes": validate.FileStopToRoutes,
	"route_to_stops": validate.FileRouteToStops,
	"timetable":      validate.FileTimetable,
	"metadata":       validate.FileMetadata,
}

// BuildMetadata summarizes a merged dataset
func BuildMetadata(ds *derive.Dataset, profiles []gtfs.Profile, region Region, runID string, now time.Time) Metadata {
	md := Metadata{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Version:     Version,
		RunID:       runID,
		City:        region.City,
		Center:      region.Center,
		DefaultZoom: region.DefaultZoom,
		Totals: Totals{
			Stops:              len(ds.Stops),
			Routes:             len(ds.Routes),
			RoutesWithGeometry: ds.RoutesWithGeometry(),
		},
		Agencies:       make(map[string]AgencyStats, len(profiles)),
		TransitTypes:   make(map[string]TransitStats),
		RouteTypeNames: make(map[string]string, len(derive.RouteTypeNames)),
		Files:          FileNames,
	}

	infos := make(map[string]derive.FeedInfo, len(ds.Feeds))
	for _, info := range ds.Feeds {
		infos[info.Agency] = info
	}

	for _, p := range profiles {
		stats := AgencyStats{
			Name:         p.Name,
			TransitType:  p.TransitType,
			StopCount:    ds.StopCount(p.Code),
			RouteCount:   ds.RouteCount(p.Code),
			ColorDefault: p.DefaultColor,
		}
		if info, ok := infos[p.Code]; ok {
			stats.FilesAvailable = info.Files
			stats.HasShapes = info.HasShapes
			stats.AgencyName = info.AgencyName
			stats.AvgHeadwayMin = info.AvgHeadwayMin
			stats.TripsPerHour = info.TripsPerHour
		}
		md.Agencies[p.Code] = stats

		if _, ok := md.TransitTypes[p.TransitType]; !ok {
			md.TransitTypes[p.TransitType] = TransitStats{}
		}
	}

	for _, s := range ds.Stops {
		t := md.TransitTypes[s.TransitType]
		t.StopCount++
		md.TransitTypes[s.TransitType] = t
	}
	for _, r := range ds.Routes {
		t := md.TransitTypes[r.TypeName]
		t.RouteCount++
		t.LengthKm += r.LengthMeters / 1000
		md.TransitTypes[r.TypeName] = t
	}
	for k, t := range md.TransitTypes {
		t.LengthKm = math.Round(t.LengthKm*10) / 10
		md.TransitTypes[k] = t
	}

	for code, name := range derive.RouteTypeNames {
		md.RouteTypeNames[strconv.Itoa(code)] = name
	}

	return md
}

func roundKm(meters float64) float64 {
	return math.Round(meters/100) / 10
}
