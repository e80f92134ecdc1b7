package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"strings"

	"github.com/4chain-ag/go-seal-services/pkg/config"
	"github.com/google/uuid"
)

func main() {
	regenToken := flag.Bool("regen-token", false, "Regenerate admin bearer token")
	flag.BoolVar(regenToken, "t", false, "Regenerate admin bearer token (shorthand)")

	outputFile := flag.String("output-file", config.DefaultConfigFilePath, "Output configuration file path")
	flag.StringVar(outputFile, "o", config.DefaultConfigFilePath, "Output configuration file path (shorthand)")

	storage := flag.String("storage", config.StorageMemory, "Seal graph storage driver: memory, sqlite or badger")

	flag.Parse()

	cfg := config.NewDefault()
	cfg.Storage.Driver = *storage

	if *regenToken {
		cfg.Server.AdminBearerToken = uuid.NewString()
	}

	ext := strings.TrimPrefix(filepath.Ext(*outputFile), ".")
	if !slices.Contains(config.SupportedExts(), ext) {
		log.Fatalf("Unsupported output file extension: %s", ext)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v\n", err)
	}

	if err := cfg.Export(*outputFile); err != nil {
		log.Fatalf("Error writing configuration: %v\n", err)
	}

	fmt.Printf("Configuration written to %s\n", *outputFile)
}
