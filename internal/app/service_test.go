package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	service "github.com/okian/atscore/internal/app"
	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/internal/domain/model"
	"github.com/okian/atscore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const backendJob = `We are hiring a backend engineer to design and operate Go services.
You will work with PostgreSQL, Redis, Docker and Kubernetes, build REST APIs,
and own monitoring with Prometheus.`

const goResume = `Jane Doe
jane@example.com | +1 555 123 4567
SUMMARY
Backend engineer building Go services.
SKILLS
Go, PostgreSQL, Redis, Docker, Kubernetes, Prometheus
EXPERIENCE
Senior Engineer, Acme, 2020 - Present
Built REST APIs in Go serving 2 million requests per day.
EDUCATION
B.Sc. Computer Science, State University, 2019`

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it reports itself stopped", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
			So(svc.Size(), ShouldEqual, int64(0))
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50),
			service.WithDedupeSize(25),
			service.WithMaxRecords(0),
			service.WithAnalysisTimeout(time.Second),
			service.WithDefaultMode(analysis.ModeStudent),
		)

		Convey("Then the options are visible in the stats", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50)
			So(stats["dedupeSize"], ShouldEqual, 25)
			So(stats["maxRecords"], ShouldEqual, 0)
			So(stats["defaultMode"], ShouldEqual, analysis.ModeStudent)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		_, _, err := svc.Submit(ctx, model.Job{Resume: goResume, JobDescription: backendJob})
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		_, err = svc.Get(ctx, "x")
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		_, err = svc.TopN(ctx, 1)
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		_, err = svc.Rank(ctx, "x")
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		So(svc.Stop, ShouldNotPanic)
	})

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)

		stats := svc.GetStats()
		So(stats["started"], ShouldEqual, true)
		So(stats, ShouldContainKey, "snapshot")
		So(stats["queueLength"], ShouldEqual, 0)

		Convey("When stopping the service", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Analyze(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(service.WithDefaultMode(analysis.ModeFresher))
		ctx := context.Background()

		Convey("When analyzing synchronously", func() {
			r, err := svc.Analyze(ctx, analysis.Input{Resume: goResume, JobDescription: backendJob})

			Convey("Then the default mode applies", func() {
				So(err, ShouldBeNil)
				So(r.Mode, ShouldEqual, analysis.ModeFresher)
				So(r.Score, ShouldBeBetweenOrEqual, 0, 100)
			})
		})

		Convey("When the job description is too short", func() {
			_, err := svc.Analyze(ctx, analysis.Input{Resume: goResume, JobDescription: "Go dev"})
			So(errors.Is(err, analysis.ErrJobDescriptionTooShort), ShouldBeTrue)
		})

		Convey("When drafting a section", func() {
			out, _ := svc.DraftSection(ctx, "summary", "Backend Engineer", analysis.Input{Resume: goResume, JobDescription: backendJob})
			So(strings.TrimSpace(out), ShouldNotBeEmpty)
		})
	})
}

func TestService_SubmitValidation(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("Then invalid jobs are rejected before queueing", func() {
			_, _, err := svc.Submit(context.Background(), model.Job{Resume: "", JobDescription: backendJob})
			So(errors.Is(err, analysis.ErrInvalidInput), ShouldBeTrue)
			So(svc.Size(), ShouldEqual, int64(0))
		})
	})
}
