// Command worldctl imports and exports guild world state as YAML.
//
// Usage:
//
//	go run ./cmd/worldctl/ import --file world.yaml --db postgres://...
//	go run ./cmd/worldctl/ export --guild 123 --file world.yaml --db postgres://...
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/veldtgames/warcouncil/internal/repository/postgres"
	"github.com/veldtgames/warcouncil/internal/worldio"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	file := fs.String("file", "", "Path to world YAML file (default stdout for export)")
	guild := fs.Int64("guild", 0, "Guild id (export only)")
	dbURL := fs.String("db", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	fs.Parse(os.Args[2:])

	if *dbURL == "" {
		log.Fatal("missing --db (or DATABASE_URL)")
	}
	db, err := postgres.Connect(*dbURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()
	store := postgres.NewStore(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch cmd {
	case "import":
		if *file == "" {
			log.Fatal("missing --file")
		}
		f, err := os.Open(*file)
		if err != nil {
			log.Fatalf("open %s: %v", *file, err)
		}
		defer f.Close()
		wf, err := worldio.Parse(f)
		if err != nil {
			log.Fatalf("parse: %v", err)
		}
		if err := worldio.Import(ctx, store, wf); err != nil {
			log.Fatalf("import: %v", err)
		}
		fmt.Printf("imported world for guild %d (%d territories, %d units)\n",
			wf.GuildID, len(wf.Territories), len(wf.Units))
	case "export":
		if *guild <= 0 {
			log.Fatal("missing --guild")
		}
		out := os.Stdout
		if *file != "" {
			f, err := os.Create(*file)
			if err != nil {
				log.Fatalf("create %s: %v", *file, err)
			}
			defer f.Close()
			out = f
		}
		if err := worldio.Export(ctx, store, *guild, out); err != nil {
			log.Fatalf("export: %v", err)
		}
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: worldctl <import|export> [--file world.yaml] [--guild id] [--db url]")
	os.Exit(2)
}
