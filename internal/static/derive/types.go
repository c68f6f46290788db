package derive

// Stop is a normalized stop record with a namespaced ID
type Stop struct {
	ID           string
	OriginalID   string
	Name         string
	Lat          float64
	Lon          float64
	Agency       string
	TransitType  string
	Routes       []string
	RouteCount   int
	FirstTime    string
	LastTime     string
	StopCode     string
	PlatformCode string
	Description  string
}

// StopRef is one entry of a route's ordered stop list
type StopRef struct {
	StopID string `json:"stop_id"`
	Name   string `json:"name"`
	Seq    int    `json:"seq"`
}

// LineString is a GeoJSON LineString geometry
type LineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// Route is a normalized route record with a namespaced ID
type Route struct {
	ID          string
	OriginalID  string
	Name        string
	ShortName   string
	LongName    string
	Type        int
	TypeName    string
	Agency      string
	Color       string
	TextColor   string
	Stops       []string
	StopCount   int
	Description string

	// Geometry is nil when fewer than two coordinates could be resolved
	Geometry     *LineString
	LengthMeters float64
}

// DayTimes holds the arrival times of one route at one stop
type DayTimes struct {
	Weekday []string `json:"weekday"`
	Weekend []string `json:"weekend"`
}

// Timetable maps stop ID -> route ID -> day times
type Timetable map[string]map[string]DayTimes

// FeedInfo summarizes one feed for the metadata document
type FeedInfo struct {
	Agency         string
	Name           string
	TransitType    string
	DefaultColor   string
	AgencyName     string
	Files          []string
	HasShapes      bool
	AvgHeadwayMin  float64
	TripsPerHour   float64
	HeadwaySamples int
}
