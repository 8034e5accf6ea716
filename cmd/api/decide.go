package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Filter, score and explain listings for the given requirements",
	Example: `  property-matching decide --fact city=Tehran --fact budget_max=1,000,000,000
  property-matching decide --fact deal_type=exchange --fact wants_exchange=yes`,
	Run: func(cmd *cobra.Command, _ []string) {
		decide(cmd)
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score every listing against the given requirements without filtering",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(decideCmd, rankCmd)

	for _, c := range []*cobra.Command{decideCmd, rankCmd} {
		c.Flags().StringArrayP("fact", "f", nil, "requirement fact as key=value, repeatable")
	}
	rankCmd.Flags().IntP("limit", "n", 5, "number of results to print, 0 prints all")
}

// requirementsFromFlags exits on malformed facts.
func requirementsFromFlags(cmd *cobra.Command, a *app) domain.Requirements {
	raw, _ := cmd.Flags().GetStringArray("fact")
	facts, err := parseFacts(raw)
	if err != nil {
		a.logger.Fatal("parsing facts", zap.Error(err))
	}

	var req domain.Requirements
	if err := req.ApplyFacts(facts); err != nil {
		a.logger.Fatal("applying facts", zap.Error(err), zap.Strings("accepted_keys", domain.FieldKeys()))
	}
	return req
}

func decide(cmd *cobra.Command) {
	a := newApp(cmd)
	defer a.shutdown()

	req := requirementsFromFlags(cmd, a)
	listings, err := a.repo.All(cmd.Context())
	if err != nil {
		a.logger.Fatal("loading listings", zap.Error(err))
	}

	result := a.engine.Decide(listings, req)
	a.logger.Info("decision made",
		zap.String("status", string(result.Status)),
		zap.Int("checked", len(listings)),
		zap.Int("listings", len(result.Listings)),
	)

	if err := printJSON(result); err != nil {
		a.logger.Fatal("printing result", zap.Error(err))
	}
}

func rank(cmd *cobra.Command) {
	a := newApp(cmd)
	defer a.shutdown()

	req := requirementsFromFlags(cmd, a)
	listings, err := a.repo.All(cmd.Context())
	if err != nil {
		a.logger.Fatal("loading listings", zap.Error(err))
	}

	results := a.engine.Rank(listings, req)
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	if err := printJSON(results); err != nil {
		a.logger.Fatal("printing result", zap.Error(err))
	}
}
