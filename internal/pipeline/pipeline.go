// Package pipeline runs annotation requests end to end: load the
// source dataset, resolve scores for every row, and land the annotated
// output in the destination dataset.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/varscore/varscore/internal/dataset"
	"github.com/varscore/varscore/internal/progress"
	"github.com/varscore/varscore/internal/score"
)

// Request is one annotation run.
type Request struct {
	// ID and Session key the run's feedback events.
	ID      uuid.UUID
	Session string

	SourcePath      string
	DestinationPath string

	Algorithms []score.Algorithm
	Mode       dataset.Mode

	// Delimiter is the dataset field delimiter. Zero means comma.
	Delimiter rune
}

// Runner executes annotation requests against a set of score resolvers.
type Runner struct {
	resolvers map[score.Algorithm]score.Resolver
	notifier  progress.Notifier
	logger    *zap.Logger
}

// NewRunner creates a runner. The resolver map decides which
// algorithms the runner can serve.
func NewRunner(resolvers map[score.Algorithm]score.Resolver) *Runner {
	return &Runner{
		resolvers: resolvers,
		notifier:  progress.Nop{},
		logger:    zap.NewNop(),
	}
}

// SetNotifier sets the progress notifier. Defaults to no-op.
func (r *Runner) SetNotifier(n progress.Notifier) {
	r.notifier = n
}

// SetLogger sets the logger. Defaults to no-op.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Run annotates the source dataset with one score column per requested
// algorithm and merges the result into the destination. Every source
// row gets exactly one cell per column; rows whose variants have no
// score carry the unavailable marker. Algorithms resolve concurrently.
func (r *Runner) Run(ctx context.Context, req Request) error {
	log := r.logger.With(
		zap.String("request", req.ID.String()),
		zap.String("session", req.Session))

	if len(req.Algorithms) == 0 {
		return r.fail(log, fmt.Errorf("no algorithms requested"))
	}
	for _, alg := range req.Algorithms {
		if _, ok := r.resolvers[alg]; !ok {
			return r.fail(log, fmt.Errorf("no resolver for algorithm %q", alg))
		}
	}

	r.notifier.Notify(progress.Info, fmt.Sprintf("Applying %s to %s, this may take a while...",
		algorithmNames(req.Algorithms), filepath.Base(req.SourcePath)))

	table, err := dataset.Read(req.SourcePath, req.Delimiter)
	if err != nil {
		return r.fail(log, fmt.Errorf("load source dataset: %w", err))
	}
	keys := table.Keys()
	log.Info("source dataset loaded",
		zap.String("path", req.SourcePath),
		zap.Int("rows", len(keys)))

	columns := make([][]string, len(req.Algorithms))
	g, gctx := errgroup.WithContext(ctx)
	for i, alg := range req.Algorithms {
		i, alg := i, alg
		g.Go(func() error {
			scores, err := r.resolvers[alg].Resolve(gctx, keys)
			if err != nil {
				return fmt.Errorf("%s: %w", alg, err)
			}
			cells := make([]string, len(scores))
			for j, s := range scores {
				cells[j] = s.Cell()
			}
			columns[i] = cells
			log.Info("scores resolved", zap.String("algorithm", string(alg)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return r.fail(log, err)
	}

	for i, alg := range req.Algorithms {
		if err := table.SetColumn(alg.Column(), columns[i]); err != nil {
			return r.fail(log, err)
		}
	}

	if err := dataset.Merge(req.DestinationPath, table, req.Mode); err != nil {
		return r.fail(log, fmt.Errorf("merge into destination: %w", err))
	}

	r.notifier.Notify(progress.Success, fmt.Sprintf("Annotation saved to %s",
		filepath.Base(req.DestinationPath)))
	r.notifier.DestinationUpdated(req.DestinationPath)
	log.Info("annotation request finished",
		zap.String("destination", req.DestinationPath),
		zap.Int("rows", len(table.Rows)))
	return nil
}

func (r *Runner) fail(log *zap.Logger, err error) error {
	log.Error("annotation request failed", zap.Error(err))
	r.notifier.Notify(progress.Error, fmt.Sprintf("Annotation failed: %v", err))
	return err
}

func algorithmNames(algs []score.Algorithm) string {
	names := make([]string, len(algs))
	for i, a := range algs {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
