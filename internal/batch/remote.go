package batch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/atscore/internal/domain/model"
	"github.com/okian/atscore/pkg/logger"
)

// RunRemote submits every document to the service behind c, waits for the
// analyses and ranks them. Request ids are derived from the batch id and the
// file name so a rerun with the same batch id maps back to the same
// analyses.
func RunRemote(ctx context.Context, c *Client, cfg Config, batchID string, docs []Document) (Summary, error) {
	if len(docs) == 0 {
		return Summary{}, ErrNoResumes
	}
	if err := c.Health(ctx); err != nil {
		return Summary{}, err
	}
	if batchID == "" {
		batchID = uuid.NewString()
	}
	start := time.Now()
	log := logger.NamedOrDiscard("batch")
	results := make([]Result, len(docs))

	run(ctx, cfg.workers(len(docs)), len(docs), func(i int) {
		doc := docs[i]
		t := time.Now()
		r := Result{Name: doc.Name}
		defer func() {
			r.Elapsed = time.Since(t)
			results[i] = r
		}()

		acc, err := c.Submit(ctx, Submission{
			Resume:         doc.Text,
			JobDescription: cfg.JobDescription,
			Mode:           string(cfg.Mode),
			RequestID:      batchID + ":" + doc.Name,
			Label:          doc.Name,
		})
		if err != nil {
			r.Error = err.Error()
			log.Warn(ctx, "submission failed", logger.String("resume", doc.Name), logger.Error(err))
			return
		}
		r.AnalysisID = acc.AnalysisID
		r.Duplicate = acc.Duplicate

		wctx, cancel := context.WithTimeout(ctx, cfg.timeout())
		rec, err := c.Wait(wctx, acc.AnalysisID, cfg.pollInterval())
		cancel()
		switch {
		case err != nil:
			r.Error = err.Error()
		case rec.Status == model.StatusFailed:
			r.Error = rec.Error
		default:
			r.Report = rec.Report
			if score, ok := rec.Score(); ok {
				r.Score = score
			}
			if cfg.Verbose {
				log.Info(ctx, "analysis finished",
					logger.String("resume", doc.Name),
					logger.String("analysis_id", acc.AnalysisID),
					logger.Int("score", r.Score))
			}
		}
	})
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	s := summarize(results)
	s.BatchID = batchID
	s.Duration = time.Since(start)
	return s, nil
}
