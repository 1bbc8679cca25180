package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	app "github.com/okian/atscore/internal/app"
	"github.com/okian/atscore/internal/config"
	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const (
	testJob    = "Backend engineer with Go, Kubernetes, PostgreSQL and Docker experience building REST APIs."
	testResume = "Jane Doe\nExperience\nBuilt REST APIs in Go on Kubernetes with PostgreSQL.\nSkills\nGo, Docker, Kubernetes\nEducation\nB.Sc. Computer Science"
)

func analysisInput() analysis.Input {
	return analysis.Input{Resume: testResume, JobDescription: testJob, Mode: analysis.ModeExperienced}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ATSCORE_ADDR", ":8080")
	t.Setenv("ATSCORE_QUEUE_SIZE", "1000")
	t.Setenv("ATSCORE_WORKER_COUNT", "4")

	convey.Convey("Given environment overrides", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then configuration should be loadable", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
		})
	})
}

func TestNewAnalyzer(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()
		ctx := context.Background()

		convey.Convey("When the analyzer is built", func() {
			a, err := newAnalyzer(ctx, cfg, logger.Discard())

			convey.Convey("Then it analyzes with rule-based suggestions", func() {
				convey.So(err, convey.ShouldBeNil)
				report, err := a.Analyze(ctx, analysisInput())
				convey.So(err, convey.ShouldBeNil)
				convey.So(report.Score, convey.ShouldBeBetweenOrEqual, 0, 100)
				convey.So(string(report.SuggestionSource), convey.ShouldEqual, "rules")
			})
		})

		convey.Convey("When the vocabulary file is missing", func() {
			cfg.VocabularyFile = filepath.Join(t.TempDir(), "missing.yaml")
			_, err := newAnalyzer(ctx, cfg, logger.Discard())
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the LLM is enabled without a key", func() {
			cfg.LLM.Enabled = true
			cfg.LLM.APIKey = ""
			_, err := newAnalyzer(ctx, cfg, logger.Discard())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestHandler(t *testing.T) {
	convey.Convey("Given a started service behind the HTTP handler", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := config.New()
		cfg.WorkerCount = 1
		a, err := newAnalyzer(ctx, cfg, logger.Discard())
		convey.So(err, convey.ShouldBeNil)
		svc := newService(cfg, a, logger.Discard())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, cfg, svc, logger.Discard())

		convey.Convey("Then health, docs and analysis routes respond", func() {
			for _, path := range []string{"/healthz", "/stats", "/openapi.yaml", "/api-docs"} {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}

			body, _ := json.Marshal(map[string]string{"resume": testResume, "job_description": testJob})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(string(body))))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, "ats_score")
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.Convey("Then the system updater returns when ctx ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the service updater handles a stopped service", func() {
			svc := app.New()
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then a system update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

func TestVocabularyFile(t *testing.T) {
	convey.Convey("Given a custom vocabulary file", t, func() {
		path := filepath.Join(t.TempDir(), "vocab.yaml")
		err := os.WriteFile(path, []byte("technical:\n  - golang\n  - kubernetes\nsoft_skills:\n  - leadership\n"), 0o600)
		convey.So(err, convey.ShouldBeNil)

		cfg := config.New()
		cfg.VocabularyFile = path

		convey.Convey("Then the analyzer loads it", func() {
			_, err := newAnalyzer(context.Background(), cfg, logger.Discard())
			convey.So(err, convey.ShouldBeNil)
		})
	})
}
