package scoring_test

import (
	"testing"

	"github.com/okian/atscore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeScore(t *testing.T) {
	Convey("Given the calibration bands", t, func() {
		Convey("When mapping the band edges", func() {
			Convey("Then the mapped values meet without gaps", func() {
				So(scoring.NormalizeScore(0), ShouldEqual, 0)
				So(scoring.NormalizeScore(0.05), ShouldEqual, 35)
				So(scoring.NormalizeScore(0.12), ShouldEqual, 55)
				So(scoring.NormalizeScore(0.22), ShouldEqual, 75)
				So(scoring.NormalizeScore(0.32), ShouldEqual, 90)
				So(scoring.NormalizeScore(0.42), ShouldEqual, 100)
			})
		})

		Convey("When mapping a value inside a band", func() {
			Convey("Then it interpolates linearly", func() {
				So(scoring.NormalizeScore(0.025), ShouldEqual, 18)
				So(scoring.NormalizeScore(0.17), ShouldEqual, 65)
				So(scoring.NormalizeScore(0.27), ShouldEqual, 83)
			})
		})

		Convey("When sweeping the whole domain", func() {
			Convey("Then the score never decreases and stays in bounds", func() {
				prev := -1
				for i := 0; i <= 1000; i++ {
					got := scoring.NormalizeScore(float64(i) / 1000)
					So(got, ShouldBeGreaterThanOrEqualTo, prev)
					So(got, ShouldBeBetweenOrEqual, 0, 100)
					prev = got
				}
			})
		})

		Convey("When the input is out of range", func() {
			So(scoring.NormalizeScore(-0.5), ShouldEqual, 0)
			So(scoring.NormalizeScore(7), ShouldEqual, 100)
		})
	})
}

func TestSimilarity(t *testing.T) {
	Convey("Given a scorer", t, func() {
		s := scoring.New()
		text := "Senior Go engineer. Built Kubernetes operators, gRPC services and PostgreSQL migrations."

		Convey("When comparing a text with itself", func() {
			sim := s.Similarity(text, text)

			Convey("Then similarity is near maximal and scores at least 90", func() {
				So(sim, ShouldBeGreaterThanOrEqualTo, 0.9)
				So(scoring.NormalizeScore(sim), ShouldBeGreaterThanOrEqualTo, 90)
			})
		})

		Convey("When one side is empty", func() {
			So(s.Similarity("", text), ShouldEqual, 0)
			So(s.Similarity(text, ""), ShouldEqual, 0)
		})

		Convey("When both sides reduce to stop words", func() {
			Convey("Then similarity degrades to zero", func() {
				So(s.Similarity("the and of", "with a the"), ShouldEqual, 0)
			})
		})

		Convey("When comparing the same pair twice", func() {
			a := s.Similarity(text, "Go engineer with Kubernetes experience")
			b := s.Similarity(text, "Go engineer with Kubernetes experience")

			Convey("Then results are identical", func() {
				So(a, ShouldEqual, b)
				So(a, ShouldBeGreaterThan, 0)
				So(a, ShouldBeLessThan, 1)
			})
		})
	})
}

func TestDetailedMetrics(t *testing.T) {
	Convey("Given a resume and a job description", t, func() {
		s := scoring.New()
		m := s.DetailedMetrics("python docker golang", "Python engineers with aws and docker")

		Convey("Then word-set ratios are computed over raw whitespace tokens", func() {
			So(m.KeywordDensity, ShouldEqual, 0.5)
			So(m.TechnicalMatch, ShouldEqual, 0.667)
			So(m.LengthRatio, ShouldEqual, 0.556)
		})

		Convey("Then the score matches the raw similarity", func() {
			So(m.NormalizedScore, ShouldEqual, scoring.NormalizeScore(m.RawSimilarity))
		})
	})

	Convey("Given a very long resume", t, func() {
		s := scoring.New()
		long := ""
		for range 50 {
			long += "kubernetes terraform "
		}
		m := s.DetailedMetrics(long, "kubernetes")

		Convey("Then the length ratio is capped", func() {
			So(m.LengthRatio, ShouldEqual, 3.0)
		})
	})

	Convey("Given a job description without technical words", t, func() {
		m := scoring.New().DetailedMetrics("anything", "the and of")

		Convey("Then ratios default to zero", func() {
			So(m.TechnicalMatch, ShouldEqual, 0)
			So(m.KeywordDensity, ShouldEqual, 0)
			So(m.RawSimilarity, ShouldEqual, 0)
		})
	})
}
