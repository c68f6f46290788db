package config

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mini-hyderabad-3d/preprocessor/internal/geo"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
)

//go:embed operators.default.yml
var defaultOperators []byte

var rgbHexRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Operator is one transit operator's fixed processing profile
type Operator struct {
	Code              string `yaml:"code" validate:"required,alphanum"`
	Name              string `yaml:"name" validate:"required"`
	Pattern           string `yaml:"pattern" validate:"required"`
	TransitType       string `yaml:"transit_type" validate:"required"`
	RouteType         int    `yaml:"route_type" validate:"gte=0"`
	DefaultColor      string `yaml:"default_color" validate:"required,rgbhex"`
	HasShapes         bool   `yaml:"has_shapes"`
	DropUnservedStops bool   `yaml:"drop_unserved_stops"`
}

// BBoxConfig bounds the area stops are expected in
type BBoxConfig struct {
	MinLat float64 `yaml:"min_lat" validate:"gte=-90,lte=90"`
	MaxLat float64 `yaml:"max_lat" validate:"gte=-90,lte=90,gtefield=MinLat"`
	MinLon float64 `yaml:"min_lon" validate:"gte=-180,lte=180"`
	MaxLon float64 `yaml:"max_lon" validate:"gte=-180,lte=180,gtefield=MinLon"`
}

// RegionConfig holds the map defaults for the dataset
type RegionConfig struct {
	City        string     `yaml:"city" validate:"required"`
	Center      []float64  `yaml:"center" validate:"len=2"`
	DefaultZoom int        `yaml:"default_zoom" validate:"gte=0,lte=22"`
	BBox        BBoxConfig `yaml:"bbox"`
}

// Settings is the operators file
type Settings struct {
	Region    RegionConfig `yaml:"region"`
	Operators []Operator   `yaml:"operators" validate:"required,min=1,unique=Code,dive"`
}

// LoadSettings reads and validates an operators file. An empty path selects
// the embedded Hyderabad defaults.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return ParseSettings(defaultOperators)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read operators file: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes and validates operators YAML
func ParseSettings(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse operators file: %w", err)
	}

	v := validator.New()
	if err := v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
		return rgbHexRe.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	if err := v.Struct(s); err != nil {
		return nil, fmt.Errorf("invalid operators file: %w", err)
	}
	return &s, nil
}

// Profiles converts the operators to feed profiles, in file order
func (s *Settings) Profiles() []gtfs.Profile {
	out := make([]gtfs.Profile, len(s.Operators))
	for i, op := range s.Operators {
		out[i] = gtfs.Profile{
			Code:              op.Code,
			Name:              op.Name,
			Pattern:           op.Pattern,
			TransitType:       op.TransitType,
			RouteType:         op.RouteType,
			DefaultColor:      op.DefaultColor,
			HasShapes:         op.HasShapes,
			DropUnservedStops: op.DropUnservedStops,
		}
	}
	return out
}

// Profile returns the profile with the given code
func (s *Settings) Profile(code string) (gtfs.Profile, bool) {
	for _, p := range s.Profiles() {
		if p.Code == code {
			return p, true
		}
	}
	return gtfs.Profile{}, false
}

// TransitTypes lists the distinct transit types in operator order
func (s *Settings) TransitTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, op := range s.Operators {
		if !seen[op.TransitType] {
			seen[op.TransitType] = true
			out = append(out, op.TransitType)
		}
	}
	return out
}

// BBox returns the configured bounding box
func (s *Settings) BBox() geo.BBox {
	b := s.Region.BBox
	return geo.BBox{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLon: b.MinLon, MaxLon: b.MaxLon}
}

// Center returns the map center as lat, lon
func (s *Settings) Center() [2]float64 {
	return [2]float64{s.Region.Center[0], s.Region.Center[1]}
}
