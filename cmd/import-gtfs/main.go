// Command import-gtfs loads a GTFS static zip into the SQLite catalog.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/config"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/db"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/static/gtfs"
)

func main() {
	config.LoadDotenv(".")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command line flags
	dbPath := flag.String("db", cfg.SQLiteDatabase, "Path to SQLite database")
	zipPath := flag.String("gtfs", cfg.GTFSStaticPath, "Path to GTFS static zip")
	flag.Parse()

	if *zipPath == "" {
		log.Fatal("No GTFS zip given: pass -gtfs or set GTFS_STATIC_PATH")
	}

	database, err := db.Connect(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	log.Printf("Connected to database: %s", *dbPath)

	ctx := context.Background()
	if err := database.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	data, err := gtfs.Parse(*zipPath)
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", *zipPath, err)
	}

	res, err := database.ReplaceCatalog(ctx, "gtfs:"+*zipPath, gtfs.BuildCatalog(data))
	if err != nil {
		log.Fatalf("Failed to import catalog: %v", err)
	}

	log.Printf("Import %s complete: %d stops, %d routes, %d stop times", res.ImportID, res.Stops, res.Routes, res.StopTimes)
}
