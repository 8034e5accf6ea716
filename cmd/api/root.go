package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/config"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/exchange"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/logger"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/matching"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/storage"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          config.App,
		Short:        "property-matching ranks real-estate listings against buyer requirements and finds exchange deals",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is property-matching.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
}

// app bundles what every subcommand needs.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	engine   *matching.Engine
	exchange *exchange.Service
	repo     storage.Repository
	close    func() error
}

// newApp reads the configuration and wires the core, exiting on failure.
func newApp(cmd *cobra.Command) *app {
	v, err := config.New(cfgFile)
	if err != nil {
		log.Fatalf("reading config: %s", err)
	}
	if err := v.BindPFlag("log.debug", cmd.Flags().Lookup("debug")); err != nil {
		log.Fatalf("binding debug flag: %s", err)
	}
	if err := v.BindPFlag("log.json", cmd.Flags().Lookup("json")); err != nil {
		log.Fatalf("binding json flag: %s", err)
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		log.Fatalf("parsing config: %s", err)
	}

	lg, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	weights, err := cfg.ResolveWeights()
	if err != nil {
		lg.Warn("use default weights", zap.Error(err))
	}

	repo, closeFn, err := openRepository(cmd.Context(), cfg.Storage)
	if err != nil {
		lg.Fatal("opening listing storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}

	lg.Debug("configuration loaded",
		zap.String("driver", cfg.Storage.Driver),
		zap.Float64("weights_total", weights.Total()),
		zap.Int("current_year", cfg.Scoring.CurrentYear),
	)

	return &app{
		cfg:      cfg,
		logger:   lg,
		engine:   matching.NewEngine(matching.NewScorer(weights, cfg.Scoring.CurrentYear), matching.WithLogger(lg)),
		exchange: exchange.NewService(cfg.Synonyms()),
		repo:     repo,
		close:    closeFn,
	}
}

func (a *app) shutdown() {
	if err := a.close(); err != nil {
		a.logger.Warn("closing storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func openRepository(ctx context.Context, cfg config.StorageConfig) (storage.Repository, func() error, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		listings, err := storage.LoadListingsFromFile(cfg.PropertiesPath)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewMemoryStore(listings), func() error { return nil }, nil
	}
}

// parseFacts turns repeated key=value flags into a fact map. Values may
// contain '=' and ','.
func parseFacts(raw []string) (map[string]string, error) {
	facts := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("fact %q: expected key=value", kv)
		}
		facts[key] = value
	}
	return facts, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
