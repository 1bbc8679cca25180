package textnorm_test

import (
	"strings"
	"testing"

	"github.com/okian/atscore/internal/domain/textnorm"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given raw resume text", t, func() {
		Convey("When it contains technical tokens and punctuation", func() {
			out := textnorm.Normalize("Skills: C++, C#, Node.js & CI/CD!!")

			Convey("Then technical characters survive and the rest become spaces", func() {
				So(out, ShouldEqual, "skills c++ c# node.js ci/cd")
			})
		})

		Convey("When it is empty or whitespace only", func() {
			Convey("Then the result is empty", func() {
				So(textnorm.Normalize(""), ShouldEqual, "")
				So(textnorm.Normalize(" \t\n "), ShouldEqual, "")
			})
		})

		Convey("When normalizing twice", func() {
			inputs := []string{
				"Senior   Go Developer — remote (EU)",
				"python/ML; AWS* Kubernetes_ops",
				"  ÉCOLE   Polytechnique  ",
			}

			Convey("Then the second pass changes nothing", func() {
				for _, in := range inputs {
					once := textnorm.Normalize(in)
					So(textnorm.Normalize(once), ShouldEqual, once)
				}
			})
		})
	})
}

func TestTokenize(t *testing.T) {
	Convey("Given a sentence with stop words and short tokens", t, func() {
		tokens := textnorm.Tokenize("We need a Python developer with a k8s and C experience")

		Convey("Then stop words and single characters are dropped", func() {
			So(tokens, ShouldResemble, []string{"need", "python", "developer", "k8s", "experience"})
		})
	})

	Convey("Given empty text", t, func() {
		So(textnorm.Tokenize(""), ShouldBeEmpty)
	})

	Convey("Given non-ASCII tokens", t, func() {
		tokens := textnorm.Tokenize("é ü python 日本")

		Convey("Then length is counted in characters, not bytes", func() {
			So(tokens, ShouldResemble, []string{"python", "日本"})
		})
	})
}

func TestStopWords(t *testing.T) {
	Convey("Given the professional stop-word set", t, func() {
		sw := textnorm.StopWords()

		Convey("Then it contains function and filler words", func() {
			So(sw.Has("the"), ShouldBeTrue)
			So(sw.Has("etc"), ShouldBeTrue)
			So(sw.Has("python"), ShouldBeFalse)
			So(textnorm.IsStopWord("build"), ShouldBeTrue)
		})

		Convey("Then Sorted is ordered and complete", func() {
			sorted := sw.Sorted()
			So(len(sorted), ShouldEqual, sw.Len())
			So(sorted[0], ShouldEqual, "a")
		})
	})
}

func TestPreprocess(t *testing.T) {
	Convey("Given extracted text with layout damage", t, func() {
		Convey("When a line has run-together words", func() {
			out := textnorm.Preprocess("SeniorSoftwareEngineerAtACMECorp2019")

			Convey("Then boundaries are split", func() {
				So(out, ShouldEqual, "Senior Software Engineer At ACME Corp 2019")
			})
		})

		Convey("When a line has normal word lengths", func() {
			out := textnorm.Preprocess("Built a REST API in Go")

			Convey("Then it is untouched", func() {
				So(out, ShouldEqual, "Built a REST API in Go")
			})
		})

		Convey("When text has CRLF, icons, control characters and blank lines", func() {
			out := textnorm.Preprocess("Name\r\n\r\n\r\n\r\n☎ +1 555 0100\x07\r\n   \r\nﬁnance   team")

			Convey("Then lines are cleaned and empty lines removed", func() {
				So(out, ShouldEqual, "Name\n+1 555 0100\nfinance team")
			})
		})

		Convey("When text is empty", func() {
			So(textnorm.Preprocess(""), ShouldEqual, "")
		})
	})
}

func TestRemoveArtifacts(t *testing.T) {
	Convey("Given text with page numbers, rules and bullets", t, func() {
		in := "Experience\n-----\n• Built APIs\n* Led team\n\n 2 \nEducation"
		out := textnorm.RemoveArtifacts(in)

		Convey("Then the artifacts are stripped", func() {
			So(out, ShouldNotContainSubstring, "-----")
			So(out, ShouldNotContainSubstring, "•")
			So(out, ShouldContainSubstring, "Built APIs")
			So(out, ShouldContainSubstring, "Led team")
			So(strings.Contains(out, "\n2\n"), ShouldBeFalse)
		})
	})
}

func TestSentences(t *testing.T) {
	Convey("Given a paragraph", t, func() {
		out := textnorm.Sentences("Built a payments API. Ok! Reduced latency by 40% in production? Yes.")

		Convey("Then short fragments are dropped", func() {
			So(out, ShouldResemble, []string{"Built a payments API", "Reduced latency by 40% in production"})
		})
	})
}
