package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/atscore/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.MaxUploadMB, convey.ShouldEqual, 10)
			convey.So(cfg.CandidateMode, convey.ShouldEqual, "experienced")
			convey.So(cfg.LLM.Enabled, convey.ShouldBeFalse)
			convey.So(cfg.AMQP.URL, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(*config.Config){
			"addr":           func(c *config.Config) { c.Addr = " " },
			"queue_size":     func(c *config.Config) { c.QueueSize = 0 },
			"worker_count":   func(c *config.Config) { c.WorkerCount = -1 },
			"max_upload_mb":  func(c *config.Config) { c.MaxUploadMB = 0 },
			"llm.api_key":    func(c *config.Config) { c.LLM.Enabled = true },
			"amqp.queue":     func(c *config.Config) { c.AMQP = config.AMQP{URL: "amqp://localhost"} },
			"candidate_mode": func(c *config.Config) { c.CandidateMode = "retired" },
		}
		for key, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, key)
		}
	})
}
