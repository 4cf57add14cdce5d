package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"movietracker/internal/etl"
	"movietracker/pkg/database"
	"movietracker/pkg/utils"
)

func main() {
	cfg := etl.DefaultConfig()
	flag.IntVar(&cfg.Movies, "movies", cfg.Movies, "number of popular movies to sync")
	flag.IntVar(&cfg.Shows, "shows", cfg.Shows, "number of popular shows to sync")
	flag.IntVar(&cfg.EpisodesPerSeason, "episodes-per-season", cfg.EpisodesPerSeason, "max episodes stored per season")
	flag.IntVar(&cfg.MaxCast, "max-cast", cfg.MaxCast, "max cast credits stored per title")
	flag.Int64Var(&cfg.MinVoteCount, "min-votes", cfg.MinVoteCount, "skip titles with fewer votes")
	flag.Float64Var(&cfg.MinPopularity, "min-popularity", cfg.MinPopularity, "skip titles below this popularity")
	flag.Parse()

	utils.LoadDotenv()

	apiKey := os.Getenv("TMDB_API_KEY")
	if apiKey == "" {
		log.Fatal("TMDB_API_KEY is required")
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := etl.NewService(db, etl.NewClient(apiKey), cfg)

	log.Printf("starting sync: %d movies, %d shows", cfg.Movies, cfg.Shows)
	stats, err := svc.Run(ctx)
	if stats != nil {
		log.Printf("run %s: movies %d processed / %d upserted / %d skipped", stats.RunID, stats.MoviesProcessed, stats.MoviesUpserted, stats.MoviesSkipped)
		log.Printf("run %s: shows %d processed / %d upserted / %d skipped", stats.RunID, stats.ShowsProcessed, stats.ShowsUpserted, stats.ShowsSkipped)
		log.Printf("run %s: %d genres, %d people, %d api calls, %d errors", stats.RunID, stats.GenresSynced, stats.PeopleSynced, stats.APICalls, stats.Errors)
	}
	if err != nil {
		log.Fatalf("sync failed: %v", err)
	}
	log.Println("sync completed")
}
