package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/mini-hyderabad-3d/preprocessor/internal/api"
	"github.com/mini-hyderabad-3d/preprocessor/internal/config"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")
	log.SetFlags(log.LstdFlags)

	cfg := config.Load()

	outputDir := flag.String("output-dir", cfg.OutputDir, "Directory holding the generated dataset")
	port := flag.String("port", cfg.Port, "Port to listen on")
	flag.Parse()

	ds, err := api.LoadDataset(*outputDir)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	log.Printf("Loaded run %s (%d stops, %d routes)", ds.RunID, len(ds.StopRoutes), len(ds.RouteStops))

	r := api.NewRouter(api.NewHandler(ds), cfg.CORSAllowedOrigins)

	log.Printf("API server starting on :%s", *port)
	log.Println("  GET /health")
	log.Println("  GET /api/metadata")
	log.Println("  GET /api/stops/{stopID}/routes")
	log.Println("  GET /api/stops/{stopID}/timetable")
	log.Println("  GET /api/routes/{routeID}/stops")
	log.Println("  GET /data/*")

	if err := http.ListenAndServe(":"+*port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
