package tfidf_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/atscore/internal/domain/textnorm"
	"github.com/okian/atscore/internal/domain/tfidf"
	. "github.com/smartystreets/goconvey/convey"
)

func TestVectorizerAnalyze(t *testing.T) {
	Convey("Given a unigram+bigram vectorizer", t, func() {
		v := tfidf.New(tfidf.WithNGramRange(1, 2))

		Convey("When analyzing a sentence", func() {
			grams := v.Analyze("We need a Python developer with Machine Learning.")

			Convey("Then stop words are removed before bigrams are formed", func() {
				So(grams, ShouldResemble, []string{
					"need", "python", "developer", "machine", "learning",
					"need python", "python developer", "developer machine", "machine learning",
				})
			})
		})

		Convey("When the text has single letters and symbols", func() {
			grams := v.Analyze("c++ c# r")

			Convey("Then tokens shorter than two characters vanish", func() {
				So(grams, ShouldBeEmpty)
			})
		})
	})
}

func TestVectorizerFitTransform(t *testing.T) {
	Convey("Given two documents", t, func() {
		v := tfidf.New(tfidf.WithNGramRange(1, 2), tfidf.WithSublinearTF(true))

		Convey("When they are identical", func() {
			m, err := v.FitTransform([]string{"go kubernetes docker go", "go kubernetes docker go"})

			Convey("Then their cosine is one", func() {
				So(err, ShouldBeNil)
				So(tfidf.Cosine(m.Rows[0], m.Rows[1]), ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("And rows are unit length", func() {
				var sum float64
				for _, x := range m.Rows[0] {
					sum += x * x
				}
				So(math.Sqrt(sum), ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("And features are sorted", func() {
				So(m.Features[0], ShouldEqual, "docker")
			})
		})

		Convey("When they share nothing", func() {
			m, err := v.FitTransform([]string{"golang kafka", "painting pottery"})

			Convey("Then their cosine is zero", func() {
				So(err, ShouldBeNil)
				So(tfidf.Cosine(m.Rows[0], m.Rows[1]), ShouldEqual, 0)
			})
		})

		Convey("When every word is a stop word", func() {
			_, err := v.FitTransform([]string{"the and of", "with a"})

			Convey("Then the vocabulary is empty", func() {
				So(errors.Is(err, tfidf.ErrEmptyVocabulary), ShouldBeTrue)
			})
		})
	})

	Convey("Given a capped vectorizer without stop words", t, func() {
		v := tfidf.New(tfidf.WithMaxFeatures(2), tfidf.WithStopWords(textnorm.NewSet()))
		m, err := v.FitTransform([]string{"beta beta alpha gamma gamma delta"})

		Convey("Then the most frequent terms are kept in lexical order", func() {
			So(err, ShouldBeNil)
			So(m.Features, ShouldResemble, []string{"beta", "gamma"})
		})
	})

	Convey("Given a single-document corpus fitted twice", t, func() {
		v := tfidf.New()
		m, err := v.FitTransform([]string{"python python aws", "python python aws"})

		Convey("Then idf is flat and scores follow term frequency", func() {
			So(err, ShouldBeNil)
			So(m.Features, ShouldResemble, []string{"aws", "python"})
			So(m.Rows[0][1], ShouldAlmostEqual, 2*m.Rows[0][0], 1e-9)
		})
	})
}
