package main

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/config"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/logger"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load listings from a JSON file into the SQLite database",
	Run: func(cmd *cobra.Command, _ []string) {
		seed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("from", "", "listings JSON file (default storage.properties_path)")
	seedCmd.Flags().String("to", "", "SQLite database file (default storage.sqlite_path)")
}

// seed does not go through newApp: the memory driver would load the JSON file twice.
func seed(cmd *cobra.Command) {
	v, err := config.New(cfgFile)
	if err != nil {
		log.Fatalf("reading config: %s", err)
	}
	_ = v.BindPFlag("log.debug", cmd.Flags().Lookup("debug"))
	_ = v.BindPFlag("log.json", cmd.Flags().Lookup("json"))
	_ = v.BindPFlag("storage.properties_path", cmd.Flags().Lookup("from"))
	_ = v.BindPFlag("storage.sqlite_path", cmd.Flags().Lookup("to"))

	cfg, err := config.FromViper(v)
	if err != nil {
		log.Fatalf("parsing config: %s", err)
	}
	lg, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer lg.Sync()

	listings, err := storage.LoadListingsFromFile(cfg.Storage.PropertiesPath)
	if err != nil {
		lg.Fatal("loading listings", zap.Error(err))
	}

	store, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
	if err != nil {
		lg.Fatal("opening sqlite", zap.Error(err))
	}
	defer store.Close()

	ctx := cmd.Context()
	if err := store.EnsureSchema(ctx); err != nil {
		lg.Fatal("creating schema", zap.Error(err))
	}
	if err := store.UpsertMany(ctx, listings); err != nil {
		lg.Fatal("seeding listings", zap.Error(err))
	}

	n, err := store.CountListings(ctx)
	if err != nil {
		lg.Fatal("counting listings", zap.Error(err))
	}
	lg.Info("seed finished",
		zap.String("from", cfg.Storage.PropertiesPath),
		zap.String("to", cfg.Storage.SQLitePath),
		zap.Int("read", len(listings)),
		zap.Int("stored", n),
	)
}
