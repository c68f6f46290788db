package gtfs

import "strings"

// Record is one row of a GTFS table keyed by column name
type Record map[string]string

// Get returns the trimmed value of a column, or "" if the column is absent
func (r Record) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// Table is one parsed GTFS file. A nil *Table means the file was not present.
type Table struct {
	Name    string
	Columns []string
	Rows    []Record
}

// NewTable builds a table from a header and rows, mostly useful in tests
func NewTable(name string, columns []string, rows ...[]string) *Table {
	t := &Table{Name: name, Columns: columns}
	for _, row := range rows {
		rec := make(Record, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

// Has reports whether the table declares the given column
func (t *Table) Has(column string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Len returns the number of rows, 0 for an absent table
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table is absent or has no rows
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Profile is the fixed per-operator configuration a feed is processed with
type Profile struct {
	Code         string
	Name         string
	Pattern      string
	TransitType  string
	RouteType    int
	DefaultColor string
	HasShapes    bool

	// DropUnservedStops removes stops no trip serves. Metro feeds list
	// entrances and exits as stops; they are not stations.
	DropUnservedStops bool
}

// File names of the tables a feed can carry
const (
	FileAgency         = "agency.txt"
	FileStops          = "stops.txt"
	FileRoutes         = "routes.txt"
	FileTrips          = "trips.txt"
	FileStopTimes      = "stop_times.txt"
	FileCalendar       = "calendar.txt"
	FileCalendarDates  = "calendar_dates.txt"
	FileShapes         = "shapes.txt"
	FileFareAttributes = "fare_attributes.txt"
	FileFareRules      = "fare_rules.txt"
	FileTransfers      = "transfers.txt"
	FileFrequencies    = "frequencies.txt"
	FileFeedInfo       = "feed_info.txt"
)

// RequiredFiles are the tables without which a feed cannot be derived
var RequiredFiles = []string{FileAgency, FileStops, FileRoutes, FileTrips, FileStopTimes}

// Feed holds one operator's raw tables
type Feed struct {
	Profile Profile

	Agency         *Table
	Stops          *Table
	Routes         *Table
	Trips          *Table
	StopTimes      *Table
	Calendar       *Table
	CalendarDates  *Table
	Shapes         *Table
	FareAttributes *Table
	FareRules      *Table
	Transfers      *Table
	Frequencies    *Table
	FeedInfo       *Table

	// Files lists the .txt names found in the source archive
	Files []string
}

// Table returns the table stored under a GTFS file name
func (f *Feed) Table(name string) *Table {
	switch name {
	case FileAgency:
		return f.Agency
	case FileStops:
		return f.Stops
	case FileRoutes:
		return f.Routes
	case FileTrips:
		return f.Trips
	case FileStopTimes:
		return f.StopTimes
	case FileCalendar:
		return f.Calendar
	case FileCalendarDates:
		return f.CalendarDates
	case FileShapes:
		return f.Shapes
	case FileFareAttributes:
		return f.FareAttributes
	case FileFareRules:
		return f.FareRules
	case FileTransfers:
		return f.Transfers
	case FileFrequencies:
		return f.Frequencies
	case FileFeedInfo:
		return f.FeedInfo
	}
	return nil
}

func (f *Feed) setTable(name string, t *Table) {
	switch name {
	case FileAgency:
		f.Agency = t
	case FileStops:
		f.Stops = t
	case FileRoutes:
		f.Routes = t
	case FileTrips:
		f.Trips = t
	case FileStopTimes:
		f.StopTimes = t
	case FileCalendar:
		f.Calendar = t
	case FileCalendarDates:
		f.CalendarDates = t
	case FileShapes:
		f.Shapes = t
	case FileFareAttributes:
		f.FareAttributes = t
	case FileFareRules:
		f.FareRules = t
	case FileTransfers:
		f.Transfers = t
	case FileFrequencies:
		f.Frequencies = t
	case FileFeedInfo:
		f.FeedInfo = t
	}
}

// MissingRequired lists the mandatory tables the feed does not carry
func (f *Feed) MissingRequired() []string {
	var missing []string
	for _, name := range RequiredFiles {
		if f.Table(name) == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// HasShapes reports whether the feed carries any shape points
func (f *Feed) HasShapes() bool {
	return !f.Shapes.Empty()
}

// AgencyName returns the first agency_name in agency.txt, if any
func (f *Feed) AgencyName() string {
	if f.Agency.Empty() {
		return ""
	}
	return f.Agency.Rows[0].Get("agency_name")
}
