package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varscore/varscore/internal/config"
	"github.com/varscore/varscore/internal/dataset"
	"github.com/varscore/varscore/internal/pipeline"
	"github.com/varscore/varscore/internal/progress"
	"github.com/varscore/varscore/internal/remote"
	"github.com/varscore/varscore/internal/score"
	"github.com/varscore/varscore/internal/scorestore"
	"github.com/varscore/varscore/internal/workspace"
)

func newApplyCmd() *cobra.Command {
	var (
		mode      string
		delimiter string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "apply <algorithms> <dataset>",
		Short: "Annotate a variant dataset with pathogenicity scores",
		Long: `Apply adds one score column per algorithm to a variant dataset. The
dataset is a delimited file whose variant identifiers look like
chrom-pos-ref-alt; rows without a usable identifier get the
unavailable marker. Remote algorithms submit the variants to a scoring
service and may take several minutes.

With --mode append the fresh rows are added after the destination's
existing rows, which must carry the same columns. The default mode
override replaces the destination.`,
		Example: `  varscore apply revel clinvar_brca1.csv
  varscore apply revel,cadd clinvar_brca1.csv --output annotated.csv
  varscore apply cadd batch2.csv --output annotated.csv --mode append`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			algs, err := parseAlgorithms(args[0])
			if err != nil {
				return err
			}
			mergeMode, err := dataset.ParseMode(mode)
			if err != nil {
				return err
			}
			delim := []rune(delimiter)
			if len(delim) != 1 {
				return fmt.Errorf("delimiter must be a single character, got %q", delimiter)
			}
			cfg, err := config.New()
			if err != nil {
				return err
			}

			sourcePath := args[1]
			destPath := output
			if destPath == "" {
				destPath = sourcePath
			}

			resolvers, closeStores, err := buildResolvers(cfg, algs)
			if err != nil {
				return err
			}
			defer closeStores()

			runner := pipeline.NewRunner(resolvers)
			runner.SetLogger(logger.Named("pipeline"))
			runner.SetNotifier(printNotifier{})

			return runner.Run(cmd.Context(), pipeline.Request{
				ID:              uuid.New(),
				Session:         "cli",
				SourcePath:      sourcePath,
				DestinationPath: destPath,
				Algorithms:      algs,
				Mode:            mergeMode,
				Delimiter:       delim[0],
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(dataset.Override), "How output lands in the destination: override or append")
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "Dataset field delimiter")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination dataset (default: annotate the source in place)")

	return cmd
}

func parseAlgorithms(arg string) ([]score.Algorithm, error) {
	parts := strings.Split(arg, ",")
	algs := make([]score.Algorithm, 0, len(parts))
	for _, p := range parts {
		alg, err := score.ParseAlgorithm(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		algs = append(algs, alg)
	}
	return algs, nil
}

// buildResolvers opens a local store per local algorithm and shares one
// remote orchestrator across the remote ones. The returned closer shuts
// the stores down.
func buildResolvers(cfg config.Config, algs []score.Algorithm) (map[score.Algorithm]score.Resolver, func(), error) {
	resolvers := make(map[score.Algorithm]score.Resolver, len(algs))
	var stores []*scorestore.Store
	closeStores := func() {
		for _, s := range stores {
			s.Close()
		}
	}

	var orch *remote.Orchestrator
	for _, alg := range algs {
		if _, ok := resolvers[alg]; ok {
			continue
		}

		if alg.Remote() {
			if orch == nil {
				scratch, err := scratchRoot(cfg)
				if err != nil {
					closeStores()
					return nil, nil, err
				}
				client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Version, nil)
				orch = remote.NewOrchestrator(client, remote.Options{
					ScratchDir:   scratch,
					PollInterval: cfg.Remote.PollInterval,
					MaxWait:      cfg.Remote.MaxWait,
				})
				orch.SetLogger(logger.Named("remote"))
			}
			resolvers[alg] = orch
			continue
		}

		store, err := scorestore.Open(storePath(cfg, alg))
		if err != nil {
			closeStores()
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil, fmt.Errorf("no %s store found; build one with: varscore build %s <source-file>", alg, alg)
			}
			return nil, nil, err
		}
		stores = append(stores, store)
		resolvers[alg] = scorestore.NewResolver(store, cfg.Store.Workers)
	}

	return resolvers, closeStores, nil
}

// scratchRoot prepares the workspace scratch directory remote jobs stage
// their files in, sweeping entries left behind by earlier runs.
func scratchRoot(cfg config.Config) (string, error) {
	ws, err := workspace.New(cfg.Workspace.Dir)
	if err != nil {
		return "", err
	}
	ws.SetLogger(logger.Named("workspace"))

	if err := workspace.NewJanitor(ws, cfg.Workspace.ScratchMaxAge).Sweep(); err != nil {
		logger.Warn("scratch sweep failed", zap.Error(err))
	}
	return ws.ScratchRoot(), nil
}

// printNotifier writes progress events to stderr, one line per event,
// tagged with the level token.
type printNotifier struct{}

func (printNotifier) Notify(level progress.Level, message string) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", level, message)
}

func (printNotifier) DestinationUpdated(path string) {
	fmt.Fprintf(os.Stderr, "Updated %s\n", path)
}
