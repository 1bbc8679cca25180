package model_test

import (
	"testing"
	"time"

	"github.com/okian/atscore/internal/domain/analysis"
	model "github.com/okian/atscore/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestJob(t *testing.T) {
	convey.Convey("Given two jobs with the same content", t, func() {
		a := model.Job{ID: "a", Resume: "resume", JobDescription: "job", Mode: analysis.ModeStudent}
		b := a
		b.ID = "b"

		convey.Convey("Then they share a key", func() {
			convey.So(a.Key(), convey.ShouldEqual, b.Key())
			convey.So(a.Key(), convey.ShouldStartWith, "fp:")
			convey.So(len(model.Fingerprint(a.Input())), convey.ShouldEqual, 64)
		})

		convey.Convey("Then the mode changes the fingerprint", func() {
			b.Mode = analysis.ModeExperienced
			convey.So(a.Key(), convey.ShouldNotEqual, b.Key())
		})

		convey.Convey("Then field boundaries matter", func() {
			c := model.Job{Resume: "resumejob", Mode: analysis.ModeStudent}
			convey.So(model.Fingerprint(c.Input()), convey.ShouldNotEqual, model.Fingerprint(a.Input()))
		})

		convey.Convey("Then a client request id wins", func() {
			a.RequestID = "r-1"
			convey.So(a.Key(), convey.ShouldEqual, "req:r-1")
			convey.So(a.Input().Resume, convey.ShouldEqual, "resume")
		})
	})
}

func TestRecord(t *testing.T) {
	convey.Convey("Given records in different states", t, func() {
		pending := model.Record{ID: "p", Status: model.StatusPending, SubmittedAt: time.Now()}
		done := model.Record{ID: "d", Status: model.StatusDone, Report: &analysis.Report{Score: 71}}
		broken := model.Record{ID: "x", Status: model.StatusDone}

		convey.Convey("Then only finished reports have a score", func() {
			_, ok := pending.Score()
			convey.So(ok, convey.ShouldBeFalse)

			s, ok := done.Score()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(s, convey.ShouldEqual, 71)

			_, ok = broken.Score()
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}
