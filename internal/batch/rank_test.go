package batch

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSummarize(t *testing.T) {
	Convey("Given mixed results", t, func() {
		results := []Result{
			{Name: "c.pdf", Score: 70},
			{Name: "broken.pdf", Error: "extract failed"},
			{Name: "a.pdf", Score: 85},
			{Name: "b.pdf", Score: 70, Duplicate: true},
			{Name: "d.pdf", Score: 40},
		}
		s := summarize(results)

		Convey("Then results are ordered by score then name with failures last", func() {
			names := make([]string, len(s.Results))
			for i, r := range s.Results {
				names[i] = r.Name
			}
			So(names, ShouldResemble, []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "broken.pdf"})
		})

		Convey("Then ranks are dense", func() {
			So(s.Results[0].Rank, ShouldEqual, 1)
			So(s.Results[1].Rank, ShouldEqual, 2)
			So(s.Results[2].Rank, ShouldEqual, 2)
			So(s.Results[3].Rank, ShouldEqual, 3)
			So(s.Results[4].Rank, ShouldEqual, 0)
		})

		Convey("Then the counts add up", func() {
			So(s.Total, ShouldEqual, 5)
			So(s.Succeeded, ShouldEqual, 4)
			So(s.Failed, ShouldEqual, 1)
			So(s.Duplicates, ShouldEqual, 1)
			So(s.MeanScore, ShouldAlmostEqual, 66.25)
		})
	})

	Convey("Given only failures", t, func() {
		s := summarize([]Result{{Name: "x", Error: "boom"}})
		So(s.MeanScore, ShouldEqual, 0.0)
		So(s.Failed, ShouldEqual, 1)
	})
}

func TestConfigDefaults(t *testing.T) {
	Convey("Worker count is clamped to the number of items", t, func() {
		So(Config{Workers: 8}.workers(3), ShouldEqual, 3)
		So(Config{Workers: 2}.workers(10), ShouldEqual, 2)
		So(Config{}.workers(1), ShouldEqual, 1)
		So(Config{}.timeout(), ShouldEqual, defaultTimeout)
		So(Config{}.pollInterval(), ShouldEqual, defaultPollInterval)
	})
}
