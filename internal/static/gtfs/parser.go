package gtfs

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoGTFSFiles is returned when an archive has no stops.txt at any supported depth
var ErrNoGTFSFiles = errors.New("no GTFS files found")

// tableFiles are the files a feed is loaded from, in load order
var tableFiles = []string{
	FileAgency, FileStops, FileRoutes, FileTrips, FileStopTimes,
	FileCalendar, FileCalendarDates, FileShapes,
	FileFareAttributes, FileFareRules, FileTransfers, FileFrequencies, FileFeedInfo,
}

// FindArchives matches zip files in dir to operator profiles by a
// case-insensitive substring of the file name. The first match wins.
func FindArchives(dir string, profiles []Profile) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var zips []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".zip") {
			continue
		}
		zips = append(zips, entry.Name())
	}
	sort.Strings(zips)
	log.Printf("Found %d zip files in %s", len(zips), dir)

	found := make(map[string]string)
	for _, p := range profiles {
		pattern := strings.ToLower(p.Pattern)
		matched := false
		for _, name := range zips {
			if strings.Contains(strings.ToLower(name), pattern) {
				found[p.Code] = filepath.Join(dir, name)
				log.Printf("  %s: %s", p.Code, name)
				matched = true
				break
			}
		}
		if !matched {
			log.Printf("  Warning: %s: no matching zip file found", p.Code)
		}
	}

	return found, nil
}

// LoadZip reads a GTFS zip archive into a Feed
func LoadZip(zipPath string, profile Profile) (*Feed, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	log.Printf("Extracting %s from %s...", profile.Code, filepath.Base(zipPath))
	return LoadFS(&r.Reader, profile)
}

// LoadFS reads a feed from any file system holding GTFS text files, either
// at its root or up to two directories deep.
func LoadFS(fsys fs.FS, profile Profile) (*Feed, error) {
	dir, ok := findGTFSDir(fsys)
	if !ok {
		return nil, ErrNoGTFSFiles
	}

	feed := &Feed{Profile: profile}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".txt") {
			feed.Files = append(feed.Files, entry.Name())
		}
	}
	log.Printf("  Found files: %s", strings.Join(feed.Files, ", "))

	for _, name := range tableFiles {
		t, err := readTable(fsys, path.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			log.Printf("Warning: failed to parse %s: %v", name, err)
			continue
		}
		t.Name = name
		feed.setTable(name, t)
	}

	log.Printf("  Stats: agencies=%d, stops=%d, routes=%d, trips=%d, stop_times=%d, shape_points=%d",
		feed.Agency.Len(), feed.Stops.Len(), feed.Routes.Len(), feed.Trips.Len(),
		feed.StopTimes.Len(), feed.Shapes.Len())

	return feed, nil
}

func findGTFSDir(fsys fs.FS) (string, bool) {
	if hasStops(fsys, ".") {
		return ".", true
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := entry.Name()
		if hasStops(fsys, sub) {
			return sub, true
		}
		inner, err := fs.ReadDir(fsys, sub)
		if err != nil {
			continue
		}
		for _, e := range inner {
			if e.IsDir() && hasStops(fsys, path.Join(sub, e.Name())) {
				return path.Join(sub, e.Name()), true
			}
		}
	}
	return "", false
}

func hasStops(fsys fs.FS, dir string) bool {
	info, err := fs.Stat(fsys, path.Join(dir, FileStops))
	return err == nil && !info.IsDir()
}

func readTable(fsys fs.FS, name string) (*Table, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}
	return parseCSV(bytes.NewReader(text))
}

// decodeText returns UTF-8 without a byte order mark. Files that are not
// valid UTF-8 are read as Latin-1, which accepts any byte sequence.
func decodeText(raw []byte) ([]byte, error) {
	if utf8.Valid(raw) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode utf-8: %w", err)
		}
		return out, nil
	}
	out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode latin-1: %w", err)
	}
	return out, nil
}

func parseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t := &Table{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		rec := make(Record, len(columns))
		for i, col := range columns {
			if i < len(record) {
				rec[col] = record[i]
			} else {
				rec[col] = ""
			}
		}
		t.Rows = append(t.Rows, rec)
	}

	return t, nil
}
