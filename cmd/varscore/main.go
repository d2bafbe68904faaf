// Package main provides the varscore command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varscore/varscore/internal/config"
	"github.com/varscore/varscore/internal/score"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// logger backs the --verbose flag. Subcommands hand it to the packages
// they drive; without --verbose everything stays quiet.
var logger = zap.NewNop()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "varscore",
		Short: "Pathogenicity score annotation for variant datasets",
		Long: `varscore annotates variant datasets with pathogenicity scores.

Local algorithms (revel) look scores up in a store built once from a
published score dataset. Remote algorithms (cadd, spliceai) submit the
variants to a scoring service and wait for the job to finish. Either
way every dataset row gets a score cell; variants without a score are
marked unavailable.`,
		Example: `  # One-time setup for local scores
  varscore fetch revel
  varscore build revel ~/.varscore/datasets/revel_grch38.csv.gz

  # Annotate a dataset
  varscore apply revel clinvar_brca1.csv --output annotated.csv`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(cfgFile); err != nil {
				return err
			}
			return initLogging(verbose)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.varscore.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging to stderr")

	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newApplyCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initLogging(verbose bool) error {
	if !verbose {
		return nil
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger = l
	return nil
}

// storePath is where an algorithm's local score store lives.
func storePath(cfg config.Config, alg score.Algorithm) string {
	return filepath.Join(cfg.Store.Dir, alg.String()+".duckdb")
}
