package probe

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"serverstatus/internal/models"
)

// Observer receives each result as soon as it is available. Calls are
// serialized; index is the result's position in the final Run.
type Observer func(index int, result models.CheckResult)

// Runner checks every port of a set of targets.
type Runner struct {
	prober      *Prober
	timeout     time.Duration
	concurrency int
}

// NewRunner creates a runner. concurrency 1 checks endpoints one after
// another; larger values check independent endpoints in parallel.
func NewRunner(prober *Prober, timeout time.Duration, concurrency int) *Runner {
	if prober == nil {
		prober = defaultProber
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		prober:      prober,
		timeout:     timeout,
		concurrency: concurrency,
	}
}

type job struct {
	target   models.Target
	endpoint models.Endpoint
}

// Run executes a single round of checks. Results keep target/port order.
func (r *Runner) Run(ctx context.Context, targets []models.Target, observe Observer) models.Run {
	var jobs []job
	for _, t := range targets {
		for _, ep := range t.Endpoints() {
			jobs = append(jobs, job{target: t, endpoint: ep})
		}
	}

	run := models.Run{
		Timestamp: time.Now().UTC(),
		Results:   make([]models.CheckResult, len(jobs)),
	}

	var mu sync.Mutex
	record := func(i int, res models.CheckResult) {
		mu.Lock()
		defer mu.Unlock()
		run.Results[i] = res
		if observe != nil {
			observe(i, res)
		}
	}

	if r.concurrency == 1 {
		for i, j := range jobs {
			record(i, r.check(ctx, j))
		}
		return run
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			record(i, r.check(ctx, j))
			return nil
		})
	}
	_ = g.Wait()
	return run
}

func (r *Runner) check(ctx context.Context, j job) models.CheckResult {
	res := r.prober.Check(ctx, j.endpoint, r.timeout)
	res.TargetID = j.target.ID
	if j.target.Name != "" {
		res.Name = j.target.Name
	}
	return res
}
