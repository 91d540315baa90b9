package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/daylist/internal/curation"
	"github.com/desertthunder/daylist/internal/models"
)

const (
	defaultWorkers = 4
	maxWorkers     = 16
)

// GenerateOptions configures [GenerateAll].
type GenerateOptions struct {
	Seed    uint64    // Base seed; spec i is seeded with Seed+i. Zero seeds every spec randomly
	Workers int       // Concurrent generators (default: 4, max: 16)
	Now     time.Time // Reference time shared by every spec
}

type generateJob struct {
	index int
	spec  curation.PlaylistSpec
}

type generateResult struct {
	index  int
	result curation.Result
}

// GenerateAll generates every spec from the same pool with a worker pool.
//
// Results are returned in spec order. Each spec owns its random source, so the output for a
// given seed does not depend on the worker count or scheduling. Specs not reached before ctx
// is cancelled are returned as failed with the context error.
func GenerateAll(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	pool []models.Song,
	specs []curation.PlaylistSpec,
	opts GenerateOptions,
) []curation.Result {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	workers = min(workers, maxWorkers, len(specs))

	jobs := make(chan generateJob, len(specs))
	results := make(chan generateResult, len(specs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go generateWorker(ctx, &wg, pool, jobs, results, opts)
	}

	for i, spec := range specs {
		jobs <- generateJob{index: i, spec: spec}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]curation.Result, len(specs))
	done := make([]bool, len(specs))
	completed := 0
	for res := range results {
		completed++
		out[res.index] = res.result
		done[res.index] = true
		sendProgress(progress, generatedUpdate(completed, len(specs), &out[res.index]))
	}

	for i := range out {
		if !done[i] {
			out[i] = cancelledResult(specs[i], ctx.Err())
		}
	}
	return out
}

// generateWorker is a worker goroutine that generates playlists from the jobs channel.
func generateWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	pool []models.Song,
	jobs <-chan generateJob,
	results chan<- generateResult,
	opts GenerateOptions,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result := curation.Generate(pool, job.spec, curation.Options{
			Now:  opts.Now,
			Rand: curation.NewRand(specSeed(opts.Seed, job.index)),
		})
		results <- generateResult{index: job.index, result: result}
	}
}

// specSeed derives the seed for the spec at index. Sums that wrap past the maximum skip
// zero, since a zero seed means a fresh random one.
func specSeed(base uint64, index int) uint64 {
	if base == 0 {
		return 0
	}
	seed := base + uint64(index)
	if seed < base {
		seed++
	}
	return seed
}

func cancelledResult(spec curation.PlaylistSpec, err error) curation.Result {
	if err == nil {
		err = context.Canceled
	}
	return curation.Result{
		Spec:         spec,
		Name:         spec.Name,
		Outcome:      curation.OutcomeFailed,
		Error:        err,
		ErrorMessage: err.Error(),
	}
}
