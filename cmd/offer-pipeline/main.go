package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"example.com/offerpipeline/internal/config"
	"example.com/offerpipeline/internal/dataload"
	"example.com/offerpipeline/internal/export"
	"example.com/offerpipeline/internal/ingest"
	"example.com/offerpipeline/internal/pipeline"
	spg "example.com/offerpipeline/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	epoch, err := cfg.Epoch()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	runID := uuid.NewString()
	log.Printf("config: epoch=%s output=%s run=%s", epoch.Format("2006-01-02"), cfg.OutputPath, runID)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	portfolio, err := dataload.LoadPortfolio(cfg.PortfolioPath)
	if err != nil {
		log.Fatalf("load portfolio: %v", err)
	}
	profiles, droppedProfiles, err := dataload.LoadProfiles(cfg.ProfilePath)
	if err != nil {
		log.Fatalf("load profiles: %v", err)
	}
	transcript, err := dataload.LoadTranscript(cfg.TranscriptPath)
	if err != nil {
		log.Fatalf("load transcript: %v", err)
	}
	log.Printf("load: offers=%d customers=%d (dropped=%d) transcript=%d",
		len(portfolio), len(profiles), droppedProfiles, len(transcript))

	res, err := pipeline.Run(pipeline.Inputs{
		Portfolio:  portfolio,
		Profiles:   profiles,
		Transcript: transcript,
	}, epoch)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	out, err := os.Create(cfg.OutputPath)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	if err := export.WriteCSV(out, res.Records); err != nil {
		log.Fatalf("write csv: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("close output: %v", err)
	}
	log.Printf("export: wrote %d records to %s", len(res.Records), cfg.OutputPath)

	if cfg.PostgresDSN != "" {
		sinkToPostgres(ctx, cfg, runID, res)
	}

	log.Printf("done: instances=%d digest=%s", res.Stats.Instances, res.Digest)
}

func sinkToPostgres(ctx context.Context, cfg config.Config, runID string, res *pipeline.Result) {
	db, err := spg.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := db.Ready(ctx); err != nil {
		log.Fatalf("db not ready: %v", err)
	}
	log.Printf("db: connected")

	mig := filepath.Join("migrations", "0001_init.sql")
	if err := db.RunMigration(ctx, mig); err != nil {
		log.Fatalf("migration: %v", err)
	}
	log.Printf("db: migration applied")

	writer := spg.NewWriter(db, runID)
	ingestor := ingest.NewIngestor(writer, cfg.QueueMaxSize, cfg.BatchMaxSize, cfg.BatchMaxWait)
	ingestor.Start(ctx)
	for _, rec := range res.Records {
		ingestor.Enqueue(rec)
	}
	inserted, failed := ingestor.Close()
	log.Printf("db: sink finished inserted=%d failed=%d", inserted, failed)

	tot, err := db.QueryCompletionTotals(ctx, nil)
	if err != nil {
		log.Printf("db: totals query failed: %v", err)
		return
	}
	log.Printf("db: table totals instances=%d customers=%d completed=%d viewed=%d",
		tot.Instances, tot.UniqueCustomers, tot.Completed, tot.Viewed)

	buckets, err := db.QueryReceiveDayBuckets(ctx, nil)
	if err != nil {
		log.Printf("db: buckets query failed: %v", err)
		return
	}
	for _, b := range buckets {
		log.Printf("db: receive day=%d instances=%d completed=%d", b.Day, b.Instances, b.Completed)
	}
}
