package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/pkg/logger"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) (analysis.Report, error)
}

// RunLocal analyzes every document in process using a worker pool and
// returns the ranked results.
func RunLocal(ctx context.Context, a Analyzer, cfg Config, docs []Document) (Summary, error) {
	if len(docs) == 0 {
		return Summary{}, ErrNoResumes
	}
	start := time.Now()
	log := logger.NamedOrDiscard("batch")
	results := make([]Result, len(docs))

	run(ctx, cfg.workers(len(docs)), len(docs), func(i int) {
		doc := docs[i]
		t := time.Now()
		actx, cancel := context.WithTimeout(ctx, cfg.timeout())
		report, err := a.Analyze(actx, analysis.Input{Resume: doc.Text, JobDescription: cfg.JobDescription, Mode: cfg.Mode})
		cancel()

		r := Result{Name: doc.Name, Elapsed: time.Since(t)}
		if err != nil {
			r.Error = err.Error()
			log.Warn(ctx, "analysis failed", logger.String("resume", doc.Name), logger.Error(err))
		} else {
			r.Score = report.Score
			r.Report = &report
			if cfg.Verbose {
				log.Info(ctx, "analysis finished", logger.String("resume", doc.Name), logger.Int("score", report.Score))
			}
		}
		results[i] = r
	})
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	s := summarize(results)
	s.BatchID = uuid.NewString()
	s.Duration = time.Since(start)
	return s, nil
}

// run calls fn for every index in [0, n) on the given number of workers.
func run(ctx context.Context, workers, n int, fn func(i int)) {
	indices := make(chan int, workers*channelMultiplier)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if ctx.Err() != nil {
					continue
				}
				fn(i)
			}
		}()
	}

feed:
	for i := range n {
		select {
		case <-ctx.Done():
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()
}
