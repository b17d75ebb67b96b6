// Package batch converts many files to one target format concurrently.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mcncl/shapeshift/internal/codec"
	"github.com/mcncl/shapeshift/internal/errors"
)

// DefaultConcurrency is used when a Runner is given a non-positive limit.
const DefaultConcurrency = 4

// Job converts Source into Dest.
type Job struct {
	Source string
	Dest   string
}

// Result reports a finished job.
type Result struct {
	Job
	Bytes int
}

// Plan names one Job per source, writing <outDir>/<stem>.<target>.
func Plan(sources []string, outDir string, target codec.Format) []Job {
	jobs := make([]Job, 0, len(sources))
	for _, src := range sources {
		base := filepath.Base(src)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		jobs = append(jobs, Job{
			Source: src,
			Dest:   filepath.Join(outDir, stem+"."+target.String()),
		})
	}
	return jobs
}

// Runner executes jobs with bounded concurrency.
type Runner struct {
	dispatcher  *codec.Dispatcher
	target      codec.Format
	concurrency int
	logger      *zap.Logger
}

// NewRunner returns a Runner writing target-format output.
func NewRunner(d *codec.Dispatcher, target codec.Format, concurrency int, logger *zap.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{dispatcher: d, target: target, concurrency: concurrency, logger: logger}
}

// Run converts every job. The first failure cancels the jobs not yet
// started and is returned; results are in job order.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := r.convert(job)
			if err != nil {
				r.logger.Warn("conversion failed", zap.String("source", job.Source), zap.Error(err))
				return fmt.Errorf("%s: %w", job.Source, err)
			}
			r.logger.Debug("converted",
				zap.String("source", job.Source),
				zap.String("dest", job.Dest),
				zap.Int("bytes", n),
			)
			results[i] = Result{Job: job, Bytes: n}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) convert(job Job) (int, error) {
	v, _, err := r.dispatcher.ParseFile(job.Source, "")
	if err != nil {
		return 0, err
	}
	out, err := r.dispatcher.SerializeAs(v, r.target)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(job.Dest), 0o755); err != nil {
		return 0, errors.NewOutputError(fmt.Sprintf("failed to create directory for '%s'", job.Dest), err)
	}
	if err := os.WriteFile(job.Dest, out, 0o644); err != nil {
		return 0, errors.NewOutputError(fmt.Sprintf("failed to write '%s'", job.Dest), err)
	}
	return len(out), nil
}
