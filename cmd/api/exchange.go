package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/storage"
)

var exchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Find listings that accept an asset in exchange, or build a proposal for one listing",
	Run: func(cmd *cobra.Command, _ []string) {
		runExchange(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exchangeCmd)

	exchangeCmd.Flags().String("item", "", "offered asset, e.g. car")
	exchangeCmd.Flags().Int64("value", 0, "estimated value of the offered asset")
	exchangeCmd.Flags().String("listing", "", "build a proposal for this listing id instead of searching")

	_ = exchangeCmd.MarkFlagRequired("item")
}

func runExchange(cmd *cobra.Command) {
	a := newApp(cmd)
	defer a.shutdown()

	item, _ := cmd.Flags().GetString("item")
	value, _ := cmd.Flags().GetInt64("value")
	listingID, _ := cmd.Flags().GetString("listing")
	if value < 0 {
		a.logger.Fatal("value must be >= 0", zap.Int64("value", value))
	}

	if listingID != "" {
		l, err := a.repo.Get(cmd.Context(), listingID)
		if errors.Is(err, storage.ErrNotFound) {
			a.logger.Fatal("listing not found", zap.String("id", listingID))
		}
		if err != nil {
			a.logger.Fatal("loading listing", zap.Error(err))
		}
		if err := printJSON(a.exchange.BuildProposal(item, value, l)); err != nil {
			a.logger.Fatal("printing proposal", zap.Error(err))
		}
		return
	}

	listings, err := a.repo.All(cmd.Context())
	if err != nil {
		a.logger.Fatal("loading listings", zap.Error(err))
	}
	matches := a.exchange.FindMatches(item, value, listings)
	a.logger.Info("exchange search finished", zap.String("item", item), zap.Int("matches", len(matches)))

	if err := printJSON(matches); err != nil {
		a.logger.Fatal("printing matches", zap.Error(err))
	}
}
