package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varscore/varscore/internal/config"
	"github.com/varscore/varscore/internal/score"
	"github.com/varscore/varscore/internal/scorestore"
)

func newBuildCmd() *cobra.Command {
	var (
		delimiter   string
		chromCol    string
		posCol      string
		refCol      string
		altCol      string
		scoreCol    string
		filterChrom string
		sorted      bool
		batchSize   int
		output      string
	)

	cmd := &cobra.Command{
		Use:   "build <algorithm> <source-file>",
		Short: "Build a local score store from a score dataset",
		Long: `Build loads a published score dataset into a local store, one store
per algorithm. The source is a delimited file, plain or gzipped, whose
header names the chromosome, position, allele, and score columns. Rows
that cannot be parsed are skipped and counted. Building over an
existing store is refused; delete the store file to rebuild.`,
		Example: `  varscore build revel revel_grch38.csv.gz
  varscore build revel --filter-chrom 6 --sorted revel_grch38.csv.gz
  varscore build revel --delimiter ';' --score-column revel_score scores.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			alg, err := score.ParseAlgorithm(args[0])
			if err != nil {
				return err
			}
			if alg.Remote() {
				return fmt.Errorf("%s scores come from a remote service; only local algorithms use a store", alg)
			}

			cfg, err := config.New()
			if err != nil {
				return err
			}
			dbPath := output
			if dbPath == "" {
				dbPath = storePath(cfg, alg)
			}
			if scoreCol == "" {
				scoreCol = alg.Column()
			}

			opts := scorestore.Options{
				Delimiter: delimiter,
				Columns: scorestore.Columns{
					Chrom: chromCol,
					Pos:   posCol,
					Ref:   refCol,
					Alt:   altCol,
					Score: scoreCol,
				},
				BatchSize: batchSize,
				Logger:    logger.Named("scorestore"),
			}
			if filterChrom != "" {
				opts.Filter = &scorestore.ChromFilter{Chrom: filterChrom, SortedInput: sorted}
			}

			fmt.Printf("Building %s store from %s...\n", alg, args[1])
			summary, err := scorestore.Build(cmd.Context(), dbPath, args[1], opts)
			if err != nil {
				return err
			}

			fmt.Printf("Loaded %d rows in %d batches", summary.Loaded, summary.Batches)
			if summary.Skipped > 0 {
				fmt.Printf(", skipped %d malformed rows", summary.Skipped)
			}
			fmt.Printf("\nStore: %s\n", dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "Source field delimiter")
	cmd.Flags().StringVar(&chromCol, "chrom-column", "chr", "Header column holding the chromosome")
	cmd.Flags().StringVar(&posCol, "pos-column", "grch38_pos", "Header column holding the position")
	cmd.Flags().StringVar(&refCol, "ref-column", "ref", "Header column holding the reference allele")
	cmd.Flags().StringVar(&altCol, "alt-column", "alt", "Header column holding the alternate allele")
	cmd.Flags().StringVar(&scoreCol, "score-column", "", "Header column holding the score (default: the algorithm's output column)")
	cmd.Flags().StringVar(&filterChrom, "filter-chrom", "", "Load only rows for one chromosome")
	cmd.Flags().BoolVar(&sorted, "sorted", false, "Source rows are grouped by chromosome; stop scanning after the filtered one")
	cmd.Flags().IntVar(&batchSize, "batch-size", scorestore.DefaultBatchSize, "Rows committed per transaction")
	cmd.Flags().StringVar(&output, "output", "", "Store file path (default: <store-dir>/<algorithm>.duckdb)")

	return cmd
}
