package static

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mini-hyderabad-3d/preprocessor/internal/config"
	"github.com/mini-hyderabad-3d/preprocessor/internal/db"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/derive"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/gtfs"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/output"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/validate"
)

// ErrArchiveNotFound marks a configured operator with no matching zip
var ErrArchiveNotFound = errors.New("no matching GTFS archive")

// Options controls one preprocessing run
type Options struct {
	DataDir        string
	OutputDir      string
	Pretty         bool
	SkipValidation bool

	// RefreshDays > 0 skips the run while metadata.json is younger than that
	RefreshDays int

	// KeepRuns is how many runs the store retains, 0 disables pruning
	KeepRuns int

	// Now is the run clock, time.Now when nil
	Now func() time.Time
}

// FeedOutcome is what happened to one operator's feed
type FeedOutcome struct {
	Agency  string
	Partial *derive.Partial
	Report  *validate.FeedReport
	Err     error
}

// Summary describes a finished run
type Summary struct {
	RunID         string
	Skipped       bool
	Outcomes      []FeedOutcome
	Dataset       *derive.Dataset
	Manifest      *output.Manifest
	OutputValid   bool
	OutputResults []*validate.Result
}

// Failed lists the agencies whose feed could not be loaded or derived
func (s *Summary) Failed() []string {
	var out []string
	for _, o := range s.Outcomes {
		if o.Err != nil {
			out = append(out, o.Agency)
		}
	}
	return out
}

// ExitCode is 0 only when every feed was derived and the outputs validated
func (s *Summary) ExitCode() int {
	if s.Skipped {
		return 0
	}
	if len(s.Failed()) > 0 || !s.OutputValid {
		return 1
	}
	return 0
}

// Run loads, validates, derives, merges and writes every configured feed.
// A feed that fails is logged and left out; the run continues with the rest.
// store may be nil.
func Run(ctx context.Context, settings *config.Settings, opts Options, store db.Store) (*Summary, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	metadataPath := filepath.Join(opts.OutputDir, validate.FileMetadata)
	if opts.RefreshDays > 0 && !isStaleOrMissing(metadataPath, opts.RefreshDays) {
		log.Println("Static data is fresh, skipping refresh")
		return &Summary{Skipped: true, OutputValid: true}, nil
	}

	if _, err := os.Stat(opts.DataDir); err != nil {
		return nil, fmt.Errorf("data directory not found: %w", err)
	}

	summary := &Summary{RunID: db.NewRunID()}
	profiles := settings.Profiles()

	log.Println("============================================================")
	log.Println("STEP 1: Loading GTFS archives")
	log.Println("============================================================")
	archives, err := gtfs.FindArchives(opts.DataDir, profiles)
	if err != nil {
		return nil, err
	}

	feeds := make([]*gtfs.Feed, 0, len(profiles))
	for _, p := range profiles {
		path, ok := archives[p.Code]
		if !ok {
			summary.Outcomes = append(summary.Outcomes, FeedOutcome{Agency: p.Code, Err: ErrArchiveNotFound})
			continue
		}
		feed, err := gtfs.LoadZip(path, p)
		if err != nil {
			log.Printf("Warning: failed to load %s: %v", p.Code, err)
			summary.Outcomes = append(summary.Outcomes, FeedOutcome{Agency: p.Code, Err: fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)})
			continue
		}
		feeds = append(feeds, feed)
	}

	var reports map[string]*validate.FeedReport
	if !opts.SkipValidation {
		log.Println("============================================================")
		log.Println("STEP 2: Validating feeds")
		log.Println("============================================================")
		reports = validate.ValidateFeeds(validate.NewFeedValidator(settings.BBox()), feeds)
	}

	log.Println("============================================================")
	log.Println("STEP 3: Deriving stops, routes and timetables")
	log.Println("============================================================")
	var parts []*derive.Partial
	for _, feed := range feeds {
		outcome := FeedOutcome{Agency: feed.Profile.Code, Report: reports[feed.Profile.Code]}
		part, err := derive.DeriveFeed(feed)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", feed.Profile.Code, err)
			outcome.Err = err
		} else {
			outcome.Partial = part
			parts = append(parts, part)
			log.Printf("  %s: %d stops, %d routes (%d stops skipped, %d dropped, %d routes skipped)",
				feed.Profile.Code, len(part.Stops), len(part.Routes), part.SkippedStops, part.DroppedStops, part.SkippedRoutes)
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}
	sortOutcomes(summary.Outcomes, profiles)

	summary.Dataset = derive.Merge(parts...)

	log.Println("============================================================")
	log.Println("STEP 4: Writing output")
	log.Println("============================================================")
	w := &output.Writer{
		Dir:    opts.OutputDir,
		Pretty: opts.Pretty,
		Region: output.Region{
			City:        settings.Region.City,
			Center:      settings.Center(),
			DefaultZoom: settings.Region.DefaultZoom,
		},
		Profiles: profiles,
		Now:      now,
	}
	summary.Manifest, err = w.WriteAll(summary.Dataset, summary.RunID)
	if err != nil {
		return nil, err
	}

	log.Println("============================================================")
	log.Println("STEP 5: Validating output")
	log.Println("============================================================")
	summary.OutputValid, summary.OutputResults = validate.NewOutputValidator(opts.OutputDir, settings.TransitTypes()).ValidateAll()

	if store != nil {
		snap := &db.Snapshot{
			RunID:       summary.RunID,
			GeneratedAt: summary.Manifest.GeneratedAt,
			Dataset:     summary.Dataset,
			Reports:     reports,
			Manifest:    summary.Manifest,
			OutputValid: summary.OutputValid,
		}
		if err := store.SaveRun(ctx, snap); err != nil {
			log.Printf("Warning: failed to save run: %v", err)
		} else if opts.KeepRuns > 0 {
			if _, err := store.PruneRuns(ctx, opts.KeepRuns); err != nil {
				log.Printf("Warning: failed to prune runs: %v", err)
			}
		}
	}

	logSummary(summary)
	return summary, nil
}

// sortOutcomes puts outcomes back in operator order
func sortOutcomes(outcomes []FeedOutcome, profiles []gtfs.Profile) {
	rank := make(map[string]int, len(profiles))
	for i, p := range profiles {
		rank[p.Code] = i
	}
	sort.SliceStable(outcomes, func(i, j int) bool {
		return rank[outcomes[i].Agency] < rank[outcomes[j].Agency]
	})
}

func logSummary(s *Summary) {
	log.Println("============================================================")
	log.Println("SUMMARY")
	log.Println("============================================================")
	for _, o := range s.Outcomes {
		switch {
		case o.Err != nil:
			log.Printf("  %s: FAILED (%v)", o.Agency, o.Err)
		case o.Report != nil && !o.Report.Valid:
			log.Printf("  %s: derived with validation errors", o.Agency)
		default:
			log.Printf("  %s: OK", o.Agency)
		}
	}
	log.Printf("  Run ID: %s", s.RunID)
	log.Printf("  Output validation: %s", map[bool]string{true: "PASSED", false: "FAILED"}[s.OutputValid])
}

// metadataStamp is the part of metadata.json the staleness check reads
type metadataStamp struct {
	GeneratedAt string `json:"generated_at"`
}

func isStaleOrMissing(metadataPath string, maxAgeDays int) bool {
	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return true
	}

	var stamp metadataStamp
	if err := json.Unmarshal(data, &stamp); err != nil {
		return true
	}

	generatedAt, err := time.Parse(time.RFC3339, stamp.GeneratedAt)
	if err != nil {
		return true
	}

	maxAge := time.Duration(maxAgeDays) * 24 * time.Hour
	return time.Since(generatedAt) > maxAge
}
