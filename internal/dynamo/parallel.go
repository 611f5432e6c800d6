package dynamo

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Job is one independent run for RunBatch. Stateful steppers (see Resetter)
// must not be shared between jobs.
type Job struct {
	System  System
	Stepper Stepper
	X0      State
	Config  Config
}

// RunBatch executes independent jobs concurrently, at most GOMAXPROCS at a
// time. Trajectories are returned in job order. The first failing job cancels
// the rest; partial trajectories of failed jobs are still filled in.
func RunBatch(ctx context.Context, jobs []Job) ([]*Trajectory, error) {
	results := make([]*Trajectory, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, job := range jobs {
		g.Go(func() error {
			tr, err := New(job.System, job.Stepper).Run(ctx, job.X0, job.Config)
			results[i] = tr
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// RunEach is RunBatch without fail-fast: every job runs to its own end and
// its error, if any, is reported at the same index. Only ctx cancels jobs.
func RunEach(ctx context.Context, jobs []Job) ([]*Trajectory, []error) {
	results := make([]*Trajectory, len(jobs))
	errs := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, job := range jobs {
		g.Go(func() error {
			results[i], errs[i] = New(job.System, job.Stepper).Run(ctx, job.X0, job.Config)
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}
