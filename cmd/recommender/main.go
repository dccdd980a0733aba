// Package main provides the skill recommender service and its command line
// tools.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/skill-recommender/internal/config"
	"github.com/jonathan/skill-recommender/internal/observability"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	pretty     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "recommender",
		Short: "Skill-overlap certificate and position recommender",
		Long: "Recommends certificates and project positions to users from the skills they hold, " +
			"the positions and certificates they have, and the skills their goals mention.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a JSON or YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Human-readable console logs")

	cmd.AddCommand(newServeCmd(opts), newRecommendCmd(opts), newCatalogCmd(opts))
	return cmd
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// load resolves the effective configuration and builds the logger. Flags win
// over the environment, which wins over the config file.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if o.logLevel != "" {
		cfg.LogLevel = strings.ToLower(o.logLevel)
	}
	if o.pretty {
		cfg.LogPretty = true
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogPretty, cmd.ErrOrStderr())
	return cfg, logger, nil
}
