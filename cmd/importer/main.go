package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gpxadapter "github.com/samirrijal/wandelroutes/internal/adapters/gpx"
	natsadapter "github.com/samirrijal/wandelroutes/internal/adapters/nats"
	"github.com/samirrijal/wandelroutes/internal/adapters/postgres"
	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/core/ports"
	"github.com/samirrijal/wandelroutes/internal/core/usecases"
	"github.com/samirrijal/wandelroutes/internal/pkg/config"
	"github.com/samirrijal/wandelroutes/internal/pkg/logging"
)

func main() {
	var (
		name       = flag.String("name", "", "route name (defaults to the GPX track name)")
		difficulty = flag.String("difficulty", string(domain.DifficultyModerate), "Easy, Moderate or Hard")
		duration   = flag.String("duration", "", `walking time, e.g. "1u30"`)
		muddy      = flag.Bool("muddy", false, "route gets muddy after rain")
		gehuchten  = flag.String("gehuchten", "", "comma separated hamlets along the way")
		dryRun     = flag.Bool("dry-run", false, "parse and measure only")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: importer [flags] <file.gpx>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("wandelroutes-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var routes *usecases.RouteService
	if !*dryRun {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()

		var publisher ports.EventPublisher
		if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
			slog.Warn("nats unavailable, importing without route events", "error", err)
		} else {
			publisher = pub
			defer pub.Close()
		}
		routes = usecases.NewRouteService(postgres.NewRouteRepo(db), nil, publisher)
	}

	failed := 0
	for _, file := range flag.Args() {
		draft := domain.RouteDraft{
			Name:       *name,
			Difficulty: domain.Difficulty(*difficulty),
			Duration:   *duration,
			Muddy:      *muddy,
			Gehuchten:  splitList(*gehuchten),
			Highlights: []string{},
		}
		if err := importFile(ctx, routes, file, draft); err != nil {
			slog.Error("import failed", "file", file, "error", err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// importFile reads one GPX file and stores it. A nil service only measures.
func importFile(ctx context.Context, routes *usecases.RouteService, file string, draft domain.RouteDraft) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	track, err := gpxadapter.Read(f)
	if err != nil {
		return err
	}
	if draft.Name == "" {
		draft.Name = track.Name
	}
	if draft.Name == "" {
		draft.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	if draft.Description == "" {
		draft.Description = track.Description
	}

	if routes == nil {
		slog.Info("measured", "file", file, "name", draft.Name,
			"points", track.Path.Len(), "distance_km", track.Path.DistanceKm(), "complete", track.Path.Complete())
		return nil
	}

	route, err := routes.Create(ctx, draft, track.Path)
	if err != nil {
		return err
	}
	slog.Info("imported", "file", file, "route_id", route.ID, "name", route.Name, "distance_km", route.DistanceKm)
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
