package output

import (
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/derive"
)

// StopFeatureCollection is the stops.geojson document
type StopFeatureCollection struct {
	Type     string        `json:"type"`
	Features []StopFeature `json:"features"`
}

// StopFeature represents a stop GeoJSON feature
type StopFeature struct {
	Type       string        `json:"type"`
	Geometry   PointGeometry `json:"geometry"`
	Properties StopProps     `json:"properties"`
}

// PointGeometry represents Point geometry
type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// StopProps contains stop properties
type StopProps struct {
	StopID       string   `json:"stop_id"`
	Name         string   `json:"name"`
	Agency       string   `json:"agency"`
	TransitType  string   `json:"transit_type"`
	Routes       []string `json:"routes"`
	RouteCount   int      `json:"route_count"`
	FirstTime    string   `json:"first_time"`
	LastTime     string   `json:"last_time"`
	StopCode     string   `json:"stop_code,omitempty"`
	PlatformCode string   `json:"platform_code,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// RouteFeatureCollection is the routes.geojson document
type RouteFeatureCollection struct {
	Type     string         `json:"type"`
	Features []RouteFeature `json:"features"`
}

// RouteFeature represents a route GeoJSON feature
type RouteFeature struct {
	Type       string             `json:"type"`
	Geometry   *derive.LineString `json:"geometry"`
	Properties RouteProps         `json:"properties"`
}

// RouteProps contains route properties
type RouteProps struct {
	RouteID     string   `json:"route_id"`
	Name        string   `json:"name"`
	ShortName   string   `json:"short_name"`
	LongName    string   `json:"long_name"`
	Type        int      `json:"type"`
	TypeName    string   `json:"type_name"`
	Agency      string   `json:"agency"`
	Color       string   `json:"color"`
	TextColor   string   `json:"text_color"`
	Stops       []string `json:"stops"`
	StopCount   int      `json:"stop_count"`
	LengthKm    float64  `json:"length_km"`
	Description string   `json:"description,omitempty"`
}

// StopsCollection builds stops.geojson from merged stops
func StopsCollection(stops []derive.Stop) StopFeatureCollection {
	fc := StopFeatureCollection{Type: "FeatureCollection", Features: make([]StopFeature, 0, len(stops))}
	for _, s := range stops {
		routes := s.Routes
		if routes == nil {
			routes = []string{}
		}
		fc.Features = append(fc.Features, StopFeature{
			Type: "Feature",
			Geometry: PointGeometry{
				Type:        "Point",
				Coordinates: [2]float64{s.Lon, s.Lat},
			},
			Properties: StopProps{
				StopID:       s.ID,
				Name:         s.Name,
				Agency:       s.Agency,
				TransitType:  s.TransitType,
				Routes:       routes,
				RouteCount:   s.RouteCount,
				FirstTime:    s.FirstTime,
				LastTime:     s.LastTime,
				StopCode:     s.StopCode,
				PlatformCode: s.PlatformCode,
				Description:  s.Description,
			},
		})
	}
	return fc
}

// RoutesCollection builds routes.geojson. Routes without geometry are left
// out here but stay in the other indices.
func RoutesCollection(routes []derive.Route) RouteFeatureCollection {
	fc := RouteFeatureCollection{Type: "FeatureCollection", Features: make([]RouteFeature, 0, len(routes))}
	for _, r := range routes {
		if r.Geometry == nil {
			continue
		}
		stops := r.Stops
		if stops == nil {
			stops = []string{}
		}
		fc.Features = append(fc.Features, RouteFeature{
			Type:     "Feature",
			Geometry: r.Geometry,
			Properties: RouteProps{
				RouteID:     r.ID,
				Name:        r.Name,
				ShortName:   r.ShortName,
				LongName:    r.LongName,
				Type:        r.Type,
				TypeName:    r.TypeName,
				Agency:      r.Agency,
				Color:       r.Color,
				TextColor:   r.TextColor,
				Stops:       stops,
				StopCount:   r.StopCount,
				LengthKm:    roundKm(r.LengthMeters),
				Description: r.Description,
			},
		})
	}
	return fc
}
