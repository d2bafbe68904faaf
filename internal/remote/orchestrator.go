package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/varscore/varscore/internal/score"
	"github.com/varscore/varscore/internal/variant"
)

const (
	DefaultPollInterval = 60 * time.Second
	DefaultMaxWait      = 30 * time.Minute
)

// Options tunes job orchestration. Zero values take the defaults.
type Options struct {
	// ScratchDir is the parent directory for per-job scratch files.
	// Empty means the system temp directory.
	ScratchDir string

	PollInterval time.Duration

	// MaxWait is the total polling budget before a job is declared
	// unresolvable.
	MaxWait time.Duration
}

// Orchestrator drives a variant batch through a remote scoring job:
// write the input, submit, poll until finished, download, and join the
// scores back onto the batch.
type Orchestrator struct {
	service Service
	opts    Options
	logger  *zap.Logger
}

// NewOrchestrator creates an orchestrator over the given service.
func NewOrchestrator(service Service, opts Options) *Orchestrator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWait
	}
	return &Orchestrator{service: service, opts: opts, logger: zap.NewNop()}
}

// SetLogger sets the logger for job lifecycle events. Defaults to no-op.
func (o *Orchestrator) SetLogger(l *zap.Logger) {
	o.logger = l
}

// Resolve scores a batch of keys through the remote service. It returns
// one score per key in input order; keys the service produced no row
// for resolve as unavailable. Scratch files are removed on every return
// path. Cancelling the context aborts polling.
func (o *Orchestrator) Resolve(ctx context.Context, keys []variant.Key) ([]score.Score, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	scratch, err := os.MkdirTemp(o.opts.ScratchDir, "varscore-job-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	inputPath := filepath.Join(scratch, "variants.tsv.gz")
	if err := WriteInput(inputPath, keys); err != nil {
		return nil, &JobError{Stage: "prepare", Err: err}
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, &JobError{Stage: "prepare", Err: err}
	}
	job, err := o.service.Submit(ctx, f, filepath.Base(inputPath))
	f.Close()
	if err != nil {
		o.logJob(Job{}, StateFailed, zap.Error(err))
		return nil, &JobError{Stage: "submit", Err: err}
	}
	o.logJob(job, StateSubmitted, zap.Int("variants", len(keys)))

	o.logJob(job, StatePending)
	resultPath := filepath.Join(scratch, "result.tsv.gz")
	if err := o.awaitResult(ctx, job, resultPath); err != nil {
		o.logJob(job, StateFailed, zap.Error(err))
		return nil, err
	}

	rf, err := os.Open(resultPath)
	if err != nil {
		return nil, &JobError{JobID: job.ID, Stage: "join", Err: err}
	}
	defer rf.Close()

	scores, skipped, err := ParseResult(rf, keys)
	if err != nil {
		return nil, &JobError{JobID: job.ID, Stage: "join", Err: err}
	}
	o.logJob(job, StateFinished, zap.Int("skipped_rows", skipped))
	return scores, nil
}

// awaitResult polls the service at a constant interval until the result
// can be downloaded, the polling budget runs out, or the context is
// cancelled.
func (o *Orchestrator) awaitResult(ctx context.Context, job Job, resultPath string) error {
	polls := uint64(o.opts.MaxWait / o.opts.PollInterval)
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.opts.PollInterval), polls), ctx)

	attempt := 0
	op := func() error {
		attempt++
		rc, err := o.service.Result(ctx, job)
		if err != nil {
			o.logger.Debug("scoring job not ready",
				zap.String("job", job.ID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		defer rc.Close()
		return saveResult(resultPath, rc)
	}

	if err := backoff.Retry(op, policy); err != nil {
		if ctx.Err() != nil {
			return &JobError{JobID: job.ID, Stage: "poll", Err: ctx.Err()}
		}
		return &JobError{JobID: job.ID, Stage: "poll", Err: fmt.Errorf("%w: %v", ErrUnresolvable, err)}
	}
	return nil
}

func (o *Orchestrator) logJob(job Job, state State, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("job", job.ID),
		zap.String("state", string(state)),
	}, fields...)
	o.logger.Info("scoring job", all...)
}

func saveResult(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("download result: %w", err)
	}
	return f.Close()
}
