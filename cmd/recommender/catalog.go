package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/skill-recommender/internal/observability"
	"github.com/jonathan/skill-recommender/internal/recommender"
	"github.com/jonathan/skill-recommender/internal/types"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	var (
		kindFlag string
		fresh    bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Summarize the certificate and position catalogs",
		Long:  "Loads catalogs from the configured source and prints the shape of their item-skill matrices.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kinds := []types.ItemKind{types.KindCertificates, types.KindPositions}
			if kindFlag != "" {
				kind, err := parseKind(kindFlag)
				if err != nil {
					return err
				}
				kinds = []types.ItemKind{kind}
			}

			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer rt.close()

			stats := make(map[types.ItemKind]observability.CatalogStats, len(kinds))
			printer := observability.NewPrinter(cmd.OutOrStdout())
			for _, kind := range kinds {
				if inv, ok := rt.catalogs.(recommender.Invalidator); ok && fresh {
					if err := inv.Invalidate(ctx, kind); err != nil {
						logger.Warn().Err(err).Str("kind", string(kind)).Msg("cache invalidation failed")
					}
				}
				cat, err := rt.catalogs.LoadCatalog(ctx, kind)
				if err != nil {
					return fmt.Errorf("failed to load %s catalog: %w", kind, err)
				}
				st := observability.SummarizeCatalog(cat)
				if asJSON {
					stats[kind] = st
					continue
				}
				printer.PrintCatalog(kind, st)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Only this kind: certificates or positions")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Bypass the catalog cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print statistics as JSON")
	return cmd
}
