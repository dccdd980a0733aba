package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/skill-recommender/internal/observability"
)

var recommendCmdLong = `Trains one model from the configured catalog source, fetches the user's
signals from the data API and prints the diversified recommendations.`

func newRecommendCmd(root *rootOptions) *cobra.Command {
	var (
		kindFlag string
		userID   int64
		lambda   float64
		limit    int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend certificates or positions for one user",
		Long:  recommendCmdLong,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}
			if userID < 0 {
				return fmt.Errorf("--user must be non-negative")
			}
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("lambda") {
				cfg.Recommender.Lambda = lambda
			}
			if limit > 0 {
				cfg.Recommender.ResponseLimit = limit
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer rt.close()
			if rt.client == nil {
				return errNoUpstream
			}

			catalog, err := rt.catalogs.LoadCatalog(ctx, kind)
			if err != nil {
				return fmt.Errorf("failed to load %s catalog: %w", kind, err)
			}
			rec := rt.recommender(kind)
			if err := rec.Train(catalog); err != nil {
				return fmt.Errorf("failed to train %s model: %w", kind, err)
			}

			bundle, err := rt.client.UserBundle(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to fetch user %d: %w", userID, err)
			}
			if bundle.IsEmpty() {
				return fmt.Errorf("user %d not found", userID)
			}

			res, err := rec.RecommendFor(bundle, cfg.Recommender.Lambda, cfg.Recommender.TopN)
			if err != nil {
				return err
			}
			resp := res.Response(userID, bundle, cfg.Recommender.ResponseLimit)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printer := observability.NewPrinter(out)
			printer.PrintUserSignals(bundle, catalog.SkillNames())
			printer.PrintRecommendations(resp)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "certificates", "Item kind: certificates or positions")
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "User id (required)")
	cmd.Flags().Float64Var(&lambda, "lambda", 0, "Relevance/diversity trade-off in [0,1] (overrides config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of recommendations to print (overrides config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the API response JSON instead of a summary")

	if err := cmd.MarkFlagRequired("user"); err != nil {
		panic(fmt.Sprintf("failed to mark user flag as required: %v", err))
	}
	return cmd
}
