package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mini-hyderabad-3d/preprocessor/internal/static/derive"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/validate"
)

// Dataset is the lookup side of an output directory, loaded once at startup
type Dataset struct {
	Dir         string
	Metadata    json.RawMessage
	RunID       string
	GeneratedAt string
	StopRoutes  map[string][]string
	RouteStops  map[string][]derive.StopRef
	Timetable   derive.Timetable
}

// LoadDataset reads the index documents written by the preprocessor
func LoadDataset(dir string) (*Dataset, error) {
	ds := &Dataset{Dir: dir}

	raw, err := os.ReadFile(filepath.Join(dir, validate.FileMetadata))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var stamp struct {
		RunID       string `json:"run_id"`
		GeneratedAt string `json:"generated_at"`
	}
	if err := json.Unmarshal(raw, &stamp); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	ds.Metadata = raw
	ds.RunID = stamp.RunID
	ds.GeneratedAt = stamp.GeneratedAt

	docs := []struct {
		name string
		v    any
	}{
		{validate.FileStopToRoutes, &ds.StopRoutes},
		{validate.FileRouteToStops, &ds.RouteStops},
		{validate.FileTimetable, &ds.Timetable},
	}
	for _, d := range docs {
		data, err := os.ReadFile(filepath.Join(dir, d.name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", d.name, err)
		}
		if err := json.Unmarshal(data, d.v); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", d.name, err)
		}
	}

	return ds, nil
}
