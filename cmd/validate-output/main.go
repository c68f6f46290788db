package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/mini-hyderabad-3d/preprocessor/internal/config"
	"github.com/mini-hyderabad-3d/preprocessor/internal/static/validate"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")
	log.SetFlags(log.LstdFlags)

	cfg := config.Load()

	outputDir := flag.String("output-dir", cfg.OutputDir, "Directory holding the generated dataset")
	operators := flag.String("operators", cfg.OperatorsFile, "Operators YAML file (embedded Hyderabad defaults when empty)")
	flag.Parse()

	settings, err := config.LoadSettings(*operators)
	if err != nil {
		log.Fatalf("Failed to load operators: %v", err)
	}

	valid, _ := validate.NewOutputValidator(*outputDir, settings.TransitTypes()).ValidateAll()
	if !valid {
		os.Exit(1)
	}
}
