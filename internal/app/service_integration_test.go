package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/atscore/internal/adapters/mq/queue"
	"github.com/okian/atscore/internal/adapters/repository"
	service "github.com/okian/atscore/internal/app"
	"github.com/okian/atscore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// waitFinished polls until the analysis leaves the pending state.
func waitFinished(ctx context.Context, svc *service.Service, id string) model.Record {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := svc.Get(ctx, id)
		if err == nil && rec.Status != model.StatusPending {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	rec, _ := svc.Get(ctx, id)
	return rec
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a running service", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
			service.WithDedupeSize(50),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When resumes of different quality are submitted", func() {
			weak := "Jane Doe\nI like painting and hiking on weekends with my family and friends."
			strongID, dup, err := svc.Submit(ctx, model.Job{Label: "strong.pdf", Resume: goResume, JobDescription: backendJob})
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)
			weakID, _, err := svc.Submit(ctx, model.Job{Label: "weak.pdf", Resume: weak, JobDescription: backendJob})
			So(err, ShouldBeNil)

			strong := waitFinished(ctx, svc, strongID)
			poor := waitFinished(ctx, svc, weakID)

			Convey("Then both finish with reports", func() {
				So(strong.Status, ShouldEqual, model.StatusDone)
				So(poor.Status, ShouldEqual, model.StatusDone)
				So(strong.Label, ShouldEqual, "strong.pdf")
				So(strong.Report.Score, ShouldBeGreaterThan, poor.Report.Score)
			})

			Convey("Then the leaderboard orders them by score", func() {
				entries, err := svc.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].AnalysisID, ShouldEqual, strongID)
				So(entries[0].Rank, ShouldEqual, 1)

				e, err := svc.Rank(ctx, weakID)
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 2)
			})

			Convey("Then resubmitting the same content returns the first id", func() {
				id, dup, err := svc.Submit(ctx, model.Job{Label: "again.pdf", Resume: goResume, JobDescription: backendJob})
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
				So(id, ShouldEqual, strongID)
			})

			Convey("Then a new request id bypasses the content fingerprint", func() {
				id, dup, err := svc.Submit(ctx, model.Job{RequestID: "r-1", Resume: goResume, JobDescription: backendJob})
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(id, ShouldNotEqual, strongID)
			})
		})

		Convey("When a resume cleans up to nothing", func() {
			id, _, err := svc.Submit(ctx, model.Job{Resume: "★ ★ ★", JobDescription: backendJob})
			So(err, ShouldBeNil)
			rec := waitFinished(ctx, svc, id)

			Convey("Then the failure is recorded and kept off the leaderboard", func() {
				So(rec.Status, ShouldEqual, model.StatusFailed)
				So(rec.Error, ShouldNotBeEmpty)
				_, err := svc.Rank(ctx, id)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then the same content may be retried", func() {
				again, dup, err := svc.Submit(ctx, model.Job{Resume: "★ ★ ★", JobDescription: backendJob})
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(again, ShouldNotEqual, id)
			})
		})

		Convey("When many distinct jobs arrive concurrently", func() {
			const n = 20
			ids := make([]string, n)
			var wg sync.WaitGroup
			for i := range n {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					resume := goResume + fmt.Sprintf("\nCandidate number %d", i)
					ids[i], _, _ = svc.Submit(ctx, model.Job{Resume: resume, JobDescription: backendJob})
				}(i)
			}
			wg.Wait()

			Convey("Then every one is ranked", func() {
				for _, id := range ids {
					So(id, ShouldNotBeEmpty)
					So(waitFinished(ctx, svc, id).Status, ShouldEqual, model.StatusDone)
				}
				So(svc.GetStats()["ranked"], ShouldEqual, n)
			})
		})
	})
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given a service whose queue is full", t, func() {
		// one worker against a single-slot queue
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(1))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		var full int
		for i := range 200 {
			resume := strings.Repeat(goResume+"\n", 20) + fmt.Sprintf("id %d", i)
			_, _, err := svc.Submit(ctx, model.Job{Resume: resume, JobDescription: backendJob})
			if errors.Is(err, queue.ErrFull) {
				full++
			}
		}

		Convey("Then rejected jobs leave no trace", func() {
			So(full, ShouldBeGreaterThan, 0)
			stats := svc.GetStats()
			So(stats["records"], ShouldEqual, 200-full)
			So(svc.Size(), ShouldEqual, int64(200-full))
		})
	})
}
