package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/mini-hyderabad-3d/preprocessor/internal/config"
	"github.com/mini-hyderabad-3d/preprocessor/internal/db"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")
	log.SetFlags(log.LstdFlags)

	cfg := config.Load()

	// Flags override the environment
	dataDir := flag.String("data-dir", cfg.DataDir, "Directory containing GTFS zip files")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Directory to write the dataset to")
	operators := flag.String("operators", cfg.OperatorsFile, "Operators YAML file (embedded Hyderabad defaults when empty)")
	pretty := flag.Bool("pretty", cfg.Pretty, "Also write indented .pretty copies of every document")
	skipValidation := flag.Bool("skip-validation", cfg.SkipValidation, "Skip input feed validation")
	refreshDays := flag.Int("refresh-days", cfg.StaticRefreshDays, "Skip the run while metadata.json is younger than this many days (0 always runs)")
	dbPath := flag.String("db", cfg.DatabasePath, "SQLite database to record the run in")
	databaseURL := flag.String("database-url", cfg.DatabaseURL, "PostgreSQL URL to record the run in")
	keepRuns := flag.Int("keep-runs", cfg.KeepRuns, "Runs to keep in the database (0 keeps all)")
	flag.Parse()

	settings, err := config.LoadSettings(*operators)
	if err != nil {
		log.Printf("Failed to load operators: %v", err)
		return 1
	}
	log.Printf("Loaded %d operators for %s", len(settings.Operators), settings.Region.City)

	ctx := context.Background()

	var store db.Store
	switch {
	case *databaseURL != "":
		pg, err := db.ConnectPostgres(ctx, *databaseURL)
		if err != nil {
			log.Printf("Failed to connect to database: %v", err)
			return 1
		}
		defer pg.Close()
		store = pg
	case *dbPath != "":
		sqlite, err := db.Connect(*dbPath)
		if err != nil {
			log.Printf("Failed to open database: %v", err)
			return 1
		}
		defer sqlite.Close()
		if err := sqlite.EnsureSchema(ctx); err != nil {
			log.Printf("Failed to ensure schema: %v", err)
			return 1
		}
		store = sqlite
	}

	summary, err := static.Run(ctx, settings, static.Options{
		DataDir:        *dataDir,
		OutputDir:      *outputDir,
		Pretty:         *pretty,
		SkipValidation: *skipValidation,
		RefreshDays:    *refreshDays,
		KeepRuns:       *keepRuns,
	}, store)
	if err != nil {
		log.Printf("Preprocessing failed: %v", err)
		return 1
	}

	code := summary.ExitCode()
	if code != 0 {
		log.Printf("Finished with failures: feeds=%v output_valid=%t", summary.Failed(), summary.OutputValid)
		return code
	}
	log.Println("Done")
	return 0
}
