package output

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mini-hyderabad-3d/preprocessor/internal/static/derive"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/validate"
)

// FileEntry records one written document
type FileEntry struct {
	Name     string
	Path     string
	Bytes    int
	Checksum string
}

// Manifest lists what a WriteAll call produced
type Manifest struct {
	RunID       string
	GeneratedAt time.Time
	Files       []FileEntry
}

// TotalBytes sums the size of the compact documents
func (m *Manifest) TotalBytes() int {
	n := 0
	for _, f := range m.Files {
		n += f.Bytes
	}
	return n
}

// Writer serializes a merged dataset into the output document set
type Writer struct {
	Dir      string
	Pretty   bool
	Region   Region
	Profiles []gtfs.Profile

	// Now is the clock used for generated_at, time.Now when nil
	Now func() time.Time
}

// WriteAll writes the six documents, and their .pretty twins in pretty
// mode. metadata.json is written last and carries the other checksums.
func (w *Writer) WriteAll(ds *derive.Dataset, runID string) (*Manifest, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	log.Printf("Generating output files in %s...", w.Dir)

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	manifest := &Manifest{RunID: runID, GeneratedAt: now().UTC()}

	docs := []struct {
		name string
		v    any
	}{
		{validate.FileStopsGeoJSON, StopsCollection(ds.Stops)},
		{validate.FileRoutesGeoJSON, RoutesCollection(ds.Routes)},
		{validate.FileStopToRoutes, ds.StopRoutes},
		{validate.FileRouteToStops, ds.RouteStops},
		{validate.FileTimetable, ds.Timetable},
	}

	checksums := make(map[string]string, len(docs))
	for _, d := range docs {
		entry, err := w.write(d.name, d.v)
		if err != nil {
			return nil, err
		}
		checksums[d.name] = entry.Checksum
		manifest.Files = append(manifest.Files, entry)
	}

	md := BuildMetadata(ds, w.Profiles, w.Region, runID, manifest.GeneratedAt)
	md.Checksums = checksums
	entry, err := w.write(validate.FileMetadata, md)
	if err != nil {
		return nil, err
	}
	manifest.Files = append(manifest.Files, entry)

	log.Printf("Total output size: %.1f KB", float64(manifest.TotalBytes())/1024)
	return manifest, nil
}

func (w *Writer) write(name string, v any) (FileEntry, error) {
	data, err := encode(v, false)
	if err != nil {
		return FileEntry{}, fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return FileEntry{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	log.Printf("  Generated %s (%d bytes)", name, len(data))

	if w.Pretty {
		pretty, err := encode(v, true)
		if err != nil {
			return FileEntry{}, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		prettyName := PrettyName(name)
		if err := os.WriteFile(filepath.Join(w.Dir, prettyName), pretty, 0644); err != nil {
			return FileEntry{}, fmt.Errorf("failed to write %s: %w", prettyName, err)
		}
		log.Printf("  Generated %s", prettyName)
	}

	return FileEntry{Name: name, Path: path, Bytes: len(data), Checksum: sha256Sum(data)}, nil
}

// encode marshals without HTML escaping so names like "A & B" stay readable
func encode(v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// PrettyName inserts ".pretty" before the extension
func PrettyName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".pretty" + ext
}

func sha256Sum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
