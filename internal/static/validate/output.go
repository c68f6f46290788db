package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Output document names
const (
	FileStopsGeoJSON  = "stops.geojson"
	FileRoutesGeoJSON = "routes.geojson"
	FileStopToRoutes  = "stop_to_routes.json"
	FileRouteToStops  = "route_to_stops.json"
	FileTimetable     = "timetable.json"
	FileMetadata      = "metadata.json"
)

// OutputFiles lists the emitted documents in validation order
var OutputFiles = []string{
	FileStopsGeoJSON, FileRoutesGeoJSON, FileStopToRoutes,
	FileRouteToStops, FileTimetable, FileMetadata,
}

// Sample sizes bounding the cost of validating large documents
const (
	stopFeatureSample   = 100
	stopToRoutesSample  = 100
	routeToStopsSample  = 50
	routeToStopsPerItem = 10
	timetableStopSample = 20
	timetableRouteItems = 5
)

// Result is the structural check of one output document
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Stats    map[string]int
}

func newResult(file string) *Result {
	return &Result{File: file, Valid: true, Stats: make(map[string]int)}
}

func (r *Result) errorf(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// OutputValidator checks emitted documents against their declared shapes.
// It checks structure only, never whether the data is plausible.
type OutputValidator struct {
	dir          string
	transitTypes map[string]bool
}

// NewOutputValidator validates the documents in dir. transitTypes is the
// accepted set for the stop transit_type property.
func NewOutputValidator(dir string, transitTypes []string) *OutputValidator {
	types := make(map[string]bool, len(transitTypes))
	for _, t := range transitTypes {
		types[t] = true
	}
	return &OutputValidator{dir: dir, transitTypes: types}
}

// ValidateAll checks every output document and reports whether all are valid
func (v *OutputValidator) ValidateAll() (bool, []*Result) {
	log.Printf("Validating output files in %s...", v.dir)

	checks := map[string]func(any) *Result{
		FileStopsGeoJSON:  v.ValidateStops,
		FileRoutesGeoJSON: v.ValidateRoutes,
		FileStopToRoutes:  v.ValidateStopToRoutes,
		FileRouteToStops:  v.ValidateRouteToStops,
		FileTimetable:     v.ValidateTimetable,
		FileMetadata:      v.ValidateMetadata,
	}

	allValid := true
	results := make([]*Result, 0, len(OutputFiles))
	for _, name := range OutputFiles {
		data, err := v.load(name)
		var r *Result
		if err != nil {
			r = newResult(name)
			r.errorf("%v", err)
		} else {
			r = checks[name](data)
		}
		results = append(results, r)
		allValid = allValid && r.Valid
	}

	logSummary(results)
	return allValid, results
}

func (v *OutputValidator) load(name string) (any, error) {
	raw, err := os.ReadFile(filepath.Join(v.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return data, nil
}

// featureCollection checks the envelope and returns the features
func featureCollection(r *Result, data any) ([]any, bool) {
	root, ok := data.(map[string]any)
	if !ok {
		r.errorf("Root must be an object")
		return nil, false
	}
	if root["type"] != "FeatureCollection" {
		r.errorf("type must be 'FeatureCollection'")
	}
	features, ok := root["features"].([]any)
	if !ok {
		r.errorf("features must be an array")
		return nil, false
	}
	r.Stats["feature_count"] = len(features)
	return features, true
}

// feature checks a Feature's envelope and returns its geometry and properties
func feature(r *Result, prefix string, item any) (map[string]any, map[string]any, bool) {
	f, ok := item.(map[string]any)
	if !ok {
		r.errorf("%s: must be an object", prefix)
		return nil, nil, false
	}
	if f["type"] != "Feature" {
		r.errorf("%s: type must be 'Feature'", prefix)
	}
	geom, _ := f["geometry"].(map[string]any)
	if geom == nil {
		r.errorf("%s: geometry must be an object", prefix)
	}
	props, ok := f["properties"].(map[string]any)
	if !ok {
		r.errorf("%s: properties must be an object", prefix)
		return geom, nil, false
	}
	return geom, props, true
}

func requireProps(r *Result, prefix string, props map[string]any, names ...string) {
	for _, name := range names {
		if _, ok := props[name]; !ok {
			r.errorf("%s: missing required property '%s'", prefix, name)
		}
	}
}

// ValidateStops checks a decoded stops.geojson
func (v *OutputValidator) ValidateStops(data any) *Result {
	r := newResult(FileStopsGeoJSON)
	features, ok := featureCollection(r, data)
	if !ok {
		return r
	}

	for i, item := range sample(features, stopFeatureSample) {
		prefix := fmt.Sprintf("Feature[%d]", i)
		geom, props, ok := feature(r, prefix, item)
		if geom != nil {
			checkPoint(r, prefix, geom)
		}
		if !ok {
			continue
		}

		requireProps(r, prefix, props, "stop_id", "name", "agency", "transit_type", "routes")
		if routes, present := props["routes"]; present {
			if _, isList := routes.([]any); !isList {
				r.errorf("%s: routes must be an array", prefix)
			}
		}
		if tt, present := props["transit_type"]; present && len(v.transitTypes) > 0 {
			if s, _ := tt.(string); !v.transitTypes[s] {
				r.warnf("%s: unexpected transit_type '%v'", prefix, tt)
			}
		}
	}

	if len(features) > stopFeatureSample {
		r.warnf("Only validated first %d of %d features", stopFeatureSample, len(features))
	}
	return r
}

func checkPoint(r *Result, prefix string, geom map[string]any) {
	if geom["type"] != "Point" {
		r.errorf("%s: geometry.type must be 'Point'", prefix)
		return
	}
	coords, ok := geom["coordinates"].([]any)
	if !ok || len(coords) != 2 {
		r.errorf("%s: geometry.coordinates must be [lon, lat]", prefix)
		return
	}
	lon, okLon := coords[0].(float64)
	lat, okLat := coords[1].(float64)
	if !okLon || !okLat {
		r.errorf("%s: coordinates must be numbers", prefix)
		return
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		r.warnf("%s: coordinates out of valid range", prefix)
	}
}

// ValidateRoutes checks a decoded routes.geojson. Every feature is checked.
func (v *OutputValidator) ValidateRoutes(data any) *Result {
	r := newResult(FileRoutesGeoJSON)
	features, ok := featureCollection(r, data)
	if !ok {
		return r
	}

	for i, item := range features {
		prefix := fmt.Sprintf("Feature[%d]", i)
		geom, props, ok := feature(r, prefix, item)
		if geom != nil {
			checkLineString(r, prefix, geom)
		}
		if !ok {
			continue
		}

		requireProps(r, prefix, props, "route_id", "name", "type", "agency", "color", "stops")
		if stops, present := props["stops"]; present {
			if _, isList := stops.([]any); !isList {
				r.errorf("%s: stops must be an array", prefix)
			}
		}
		if color, present := props["color"]; present {
			if s, isString := color.(string); !isString || !strings.HasPrefix(s, "#") {
				r.warnf("%s: color should be a hex string", prefix)
			}
		}
	}
	return r
}

func checkLineString(r *Result, prefix string, geom map[string]any) {
	if geom["type"] != "LineString" {
		r.errorf("%s: geometry.type must be 'LineString'", prefix)
		return
	}
	coords, ok := geom["coordinates"].([]any)
	if !ok {
		r.errorf("%s: geometry.coordinates must be an array", prefix)
		return
	}
	if len(coords) < 2 {
		r.warnf("%s: LineString has fewer than 2 coordinates", prefix)
	}
	for j, c := range coords {
		pair, ok := c.([]any)
		if !ok || len(pair) != 2 {
			r.errorf("%s: coordinates[%d] must be [lon, lat]", prefix, j)
			return
		}
		if _, ok := pair[0].(float64); !ok {
			r.errorf("%s: coordinates[%d] must be numbers", prefix, j)
			return
		}
		if _, ok := pair[1].(float64); !ok {
			r.errorf("%s: coordinates[%d] must be numbers", prefix, j)
			return
		}
	}
}

// ValidateStopToRoutes checks a decoded stop_to_routes.json
func (v *OutputValidator) ValidateStopToRoutes(data any) *Result {
	r := newResult(FileStopToRoutes)
	root, ok := data.(map[string]any)
	if !ok {
		r.errorf("Root must be an object (stop_id -> route_ids)")
		return r
	}
	r.Stats["stop_count"] = len(root)

	keys := sampleKeys(root, stopToRoutesSample)
	for _, stopID := range keys {
		routes, ok := root[stopID].([]any)
		if !ok {
			r.errorf("Value for '%s' must be an array", stopID)
			continue
		}
		for _, route := range routes {
			if _, ok := route.(string); !ok {
				r.errorf("All route_ids for '%s' must be strings", stopID)
				break
			}
		}
	}

	if len(root) > len(keys) {
		r.warnf("Only validated first %d of %d entries", len(keys), len(root))
	}
	return r
}

// ValidateRouteToStops checks a decoded route_to_stops.json
func (v *OutputValidator) ValidateRouteToStops(data any) *Result {
	r := newResult(FileRouteToStops)
	root, ok := data.(map[string]any)
	if !ok {
		r.errorf("Root must be an object (route_id -> stops)")
		return r
	}
	r.Stats["route_count"] = len(root)

	keys := sampleKeys(root, routeToStopsSample)
	for _, routeID := range keys {
		stops, ok := root[routeID].([]any)
		if !ok {
			r.errorf("Value for '%s' must be an array", routeID)
			continue
		}
		for i, item := range sample(stops, routeToStopsPerItem) {
			stop, ok := item.(map[string]any)
			if !ok {
				r.errorf("'%s'[%d] must be an object", routeID, i)
				continue
			}
			for _, field := range []string{"stop_id", "name", "seq"} {
				if _, ok := stop[field]; !ok {
					r.errorf("'%s'[%d] missing '%s'", routeID, i, field)
				}
			}
		}
	}

	if len(root) > len(keys) {
		r.warnf("Only validated first %d of %d routes", len(keys), len(root))
	}
	return r
}

// ValidateTimetable checks a decoded timetable.json
func (v *OutputValidator) ValidateTimetable(data any) *Result {
	r := newResult(FileTimetable)
	root, ok := data.(map[string]any)
	if !ok {
		r.errorf("Root must be an object (stop_id -> route_timetables)")
		return r
	}
	r.Stats["stop_count"] = len(root)

	keys := sampleKeys(root, timetableStopSample)
	for _, stopID := range keys {
		routes, ok := root[stopID].(map[string]any)
		if !ok {
			r.errorf("'%s' must be an object (route_id -> times)", stopID)
			continue
		}
		for _, routeID := range sampleKeys(routes, timetableRouteItems) {
			times, ok := routes[routeID].(map[string]any)
			if !ok {
				r.errorf("'%s'.'%s' must be an object", stopID, routeID)
				continue
			}
			_, hasWeekday := times["weekday"]
			_, hasWeekend := times["weekend"]
			if !hasWeekday && !hasWeekend {
				r.warnf("'%s'.'%s' missing weekday/weekend", stopID, routeID)
			}
			for _, day := range []string{"weekday", "weekend"} {
				raw, present := times[day]
				if !present {
					continue
				}
				list, ok := raw.([]any)
				if !ok {
					r.errorf("'%s'.'%s'.%s must be array", stopID, routeID, day)
					continue
				}
				for _, t := range list {
					if _, ok := t.(string); !ok {
						r.errorf("'%s'.'%s'.%s times must be strings", stopID, routeID, day)
						break
					}
				}
			}
		}
	}

	if len(root) > len(keys) {
		r.warnf("Only validated first %d of %d stops", len(keys), len(root))
	}
	return r
}

// ValidateMetadata checks a decoded metadata.json
func (v *OutputValidator) ValidateMetadata(data any) *Result {
	r := newResult(FileMetadata)
	root, ok := data.(map[string]any)
	if !ok {
		r.errorf("Root must be an object")
		return r
	}

	for _, field := range []string{"generated_at", "totals", "agencies"} {
		if _, ok := root[field]; !ok {
			r.errorf("Missing required field: %s", field)
		}
	}

	if raw, ok := root["totals"]; ok {
		totals, isObj := raw.(map[string]any)
		if !isObj {
			r.errorf("totals must be an object")
		} else {
			for _, field := range []string{"stops", "routes"} {
				n, present := totals[field]
				if !present {
					r.errorf("totals.%s is required", field)
					continue
				}
				if f, isNum := n.(float64); isNum {
					r.Stats["total_"+field] = int(f)
				}
			}
		}
	}

	if raw, ok := root["agencies"]; ok {
		agencies, isObj := raw.(map[string]any)
		if !isObj {
			r.errorf("agencies must be an object")
		} else {
			for _, code := range sortedKeys(agencies) {
				if _, ok := agencies[code].(map[string]any); !ok {
					r.errorf("agencies.%s must be an object", code)
				}
			}
		}
	}

	if raw, ok := root["center"]; ok {
		center, isList := raw.([]any)
		if !isList || len(center) != 2 {
			r.errorf("center must be [lat, lon] array")
		}
	}
	return r
}

func sample(items []any, n int) []any {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sampleKeys returns the first n keys in sorted order
func sampleKeys(m map[string]any, n int) []string {
	keys := sortedKeys(m)
	if len(keys) > n {
		return keys[:n]
	}
	return keys
}

func logSummary(results []*Result) {
	valid := 0
	for _, r := range results {
		if r.Valid {
			valid++
		}
	}
	log.Printf("Validation Summary: %d/%d files valid", valid, len(results))

	for _, r := range results {
		status := "OK"
		if !r.Valid {
			status = "INVALID"
		}
		log.Printf("  [%s] %s", status, r.File)

		if len(r.Stats) > 0 {
			keys := make([]string, 0, len(r.Stats))
			for k := range r.Stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, len(keys))
			for i, k := range keys {
				parts[i] = fmt.Sprintf("%s=%d", k, r.Stats[k])
			}
			log.Printf("      Stats: %s", strings.Join(parts, ", "))
		}
		for i, e := range r.Errors {
			if i == 3 {
				log.Printf("      ... and %d more errors", len(r.Errors)-3)
				break
			}
			log.Printf("      ERROR: %s", e)
		}
		for i, w := range r.Warnings {
			if i == 2 {
				break
			}
			log.Printf("      Warning: %s", w)
		}
	}
}
