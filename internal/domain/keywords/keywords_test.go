package keywords_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/atscore/internal/domain/keywords"
	. "github.com/smartystreets/goconvey/convey"
)

func terms[T any](items []T, term func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, term(it))
	}
	return out
}

func kwTerm(k keywords.Keyword) string { return k.Term }

func TestExtract(t *testing.T) {
	Convey("Given a keyword extractor", t, func() {
		e := keywords.NewExtractor()

		Convey("When the job description asks for Python, ML and AWS", func() {
			kws := e.Extract("We need a Python developer with Machine Learning and AWS experience.")

			Convey("Then the technical terms are kept and filler is dropped", func() {
				So(terms(kws, kwTerm), ShouldResemble, []string{"aws", "machine learning", "python"})
				for _, kw := range kws {
					So(kw.Category, ShouldEqual, keywords.Technical)
					So(kw.Frequency, ShouldEqual, 1)
				}
				So(terms(kws, kwTerm), ShouldNotContain, "need")
				So(terms(kws, kwTerm), ShouldNotContain, "experience")
			})
		})

		Convey("When a general word repeats", func() {
			kws := e.Extract("Payments platform. Payments reconciliation with kafka.")

			Convey("Then it survives with its frequency", func() {
				got := terms(kws, kwTerm)
				So(got, ShouldContain, "payments")
				So(got, ShouldContain, "kafka")
				So(got, ShouldNotContain, "reconciliation")
			})

			Convey("Then boosted technical terms outrank the repeated general word", func() {
				So(kws[0].Term, ShouldEqual, "kafka")
			})
		})

		Convey("When the input is too short or only stop words", func() {
			So(e.Extract("python"), ShouldBeEmpty)
			So(e.Extract("   "), ShouldBeEmpty)
			So(e.Extract("the and of with a the and of"), ShouldBeEmpty)
		})

		Convey("When extracting the same text twice", func() {
			jd := "Looking for a data engineer with Spark, Kafka, Airflow and SQL. Strong communication skills."
			So(e.Extract(jd), ShouldResemble, e.Extract(jd))
		})

		Convey("When there are many technical terms", func() {
			many := keywords.NewExtractor(keywords.WithMaxKeywords(2))
			kws := many.Extract("python java golang rust kotlin scala docker kubernetes")

			Convey("Then the result is capped", func() {
				So(len(kws), ShouldEqual, 2)
			})
		})
	})
}

func TestIsJunkAndCategorize(t *testing.T) {
	Convey("Given the default vocabulary", t, func() {
		e := keywords.NewExtractor()

		Convey("Then boilerplate is junk", func() {
			for _, term := range []string{"ab", "bonus", "full time", "15 000", "stipend 15", "data pipeline", "strong work"} {
				So(e.IsJunk(term), ShouldBeTrue)
			}
		})

		Convey("Then skills are not junk", func() {
			for _, term := range []string{"kubernetes", "problem solving", "machine learning", "terraform"} {
				So(e.IsJunk(term), ShouldBeFalse)
			}
		})

		Convey("Then categories resolve by exact and long-substring matches", func() {
			So(e.Categorize("scikit-learn"), ShouldEqual, keywords.Technical)
			So(e.Categorize("kubernetes operator"), ShouldEqual, keywords.Technical)
			So(e.Categorize("pyspark"), ShouldEqual, keywords.General)
			So(e.Categorize("teamwork"), ShouldEqual, keywords.SoftSkill)
			So(e.Categorize("strong leadership"), ShouldEqual, keywords.SoftSkill)
			So(e.Categorize("payments"), ShouldEqual, keywords.General)
		})
	})
}

func TestFindMissing(t *testing.T) {
	Convey("Given job keywords", t, func() {
		e := keywords.NewExtractor()
		jobKeywords := []keywords.Keyword{
			{Term: "aws", TFIDFScore: 1.0, Frequency: 1, Category: keywords.Technical},
			{Term: "machine learning", TFIDFScore: 0.8, Frequency: 2, Category: keywords.Technical},
			{Term: "kubernetes", TFIDFScore: 0.5, Frequency: 7, Category: keywords.Technical},
			{Term: "teamwork", TFIDFScore: 0.4, Frequency: 1, Category: keywords.SoftSkill},
			{Term: "payments", TFIDFScore: 0.3, Frequency: 2, Category: keywords.General},
		}

		Convey("When the resume mentions aws inside another word", func() {
			missing := e.FindMissing("Deployed on AWS Lambda", jobKeywords)

			Convey("Then aws is not reported", func() {
				So(terms(missing, func(m keywords.MissingKeyword) string { return m.Term }), ShouldNotContain, "aws")
			})
		})

		Convey("When the resume has both words of a phrase apart", func() {
			missing := e.FindMissing("Machine vision hobbyist. Learning Rust.", jobKeywords)

			Convey("Then the phrase counts as present", func() {
				So(terms(missing, func(m keywords.MissingKeyword) string { return m.Term }), ShouldNotContain, "machine learning")
			})
		})

		Convey("When nothing matches", func() {
			resume := "Accountant with ledger experience"
			missing := e.FindMissing(resume, jobKeywords)

			Convey("Then every keyword is missing and none appears in the resume", func() {
				So(len(missing), ShouldEqual, 5)
				for _, m := range missing {
					So(strings.Contains(strings.ToLower(resume), strings.ToLower(m.Term)), ShouldBeFalse)
				}
			})

			Convey("Then importance grows with a capped frequency bonus", func() {
				So(missing[0].ImportanceScore, ShouldAlmostEqual, 1.15, 1e-9)
				So(missing[2].ImportanceScore, ShouldAlmostEqual, 0.5*1.75, 1e-9)
			})

			Convey("Then hints and suggestions follow the category", func() {
				So(missing[0].Context, ShouldEqual, "Add to your Skills or Projects section.")
				So(missing[0].Suggestions, ShouldResemble, []string{
					"Add 'aws' to your Technical Skills section.",
					"Mention 'aws' in a project or experience bullet.",
				})
				So(missing[3].Context, ShouldEqual, "Demonstrate with a concrete example in Experience.")
				So(missing[4].Suggestions, ShouldResemble, []string{"Incorporate 'payments' naturally where relevant."})
			})
		})

		Convey("When the resume or keywords are empty", func() {
			So(e.FindMissing("", jobKeywords), ShouldBeEmpty)
			So(e.FindMissing("resume", nil), ShouldBeEmpty)
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given missing keywords of mixed categories", t, func() {
		missing := []keywords.MissingKeyword{
			{Term: "budgeting", ImportanceScore: 6.0, Category: keywords.General},
			{Term: "forecasting", ImportanceScore: 3.0, Category: keywords.General},
			{Term: "reporting", ImportanceScore: 2.0, Category: keywords.General},
			{Term: "docker", ImportanceScore: 1.0, Category: keywords.Technical},
			{Term: "mentoring", ImportanceScore: 1.0, Category: keywords.SoftSkill},
			{Term: "fintech", ImportanceScore: 1.0, Category: keywords.IndustrySpecific},
		}

		ranked := keywords.Rank(missing)

		Convey("Then boosted categories lead and general terms are capped at two", func() {
			got := terms(ranked, func(r keywords.RankedKeyword) string { return r.Term })
			So(got, ShouldResemble, []string{"docker", "budgeting", "fintech", "mentoring", "forecasting"})
		})

		Convey("Then ranks are sequential from one", func() {
			for i, r := range ranked {
				So(r.Rank, ShouldEqual, i+1)
			}
		})

		Convey("Then the input is not reordered", func() {
			So(missing[0].Term, ShouldEqual, "budgeting")
		})
	})
}

func TestLoadVocabulary(t *testing.T) {
	Convey("Given a vocabulary file", t, func() {
		dir := t.TempDir()

		Convey("When it extends the built-in tables", func() {
			path := filepath.Join(dir, "vocab.yaml")
			So(os.WriteFile(path, []byte("technical:\n  - terraform\n  - Event Sourcing\njunk_words:\n  - perks\n"), 0o600), ShouldBeNil)

			v, err := keywords.LoadVocabulary(path)

			Convey("Then both built-in and new terms are present", func() {
				So(err, ShouldBeNil)
				So(v.Technical.Has("terraform"), ShouldBeTrue)
				So(v.Technical.Has("event sourcing"), ShouldBeTrue)
				So(v.Technical.Has("python"), ShouldBeTrue)
				So(v.JunkWords.Has("perks"), ShouldBeTrue)
			})

			Convey("Then an extractor using it categorizes the new terms", func() {
				e := keywords.NewExtractor(keywords.WithVocabulary(v))
				So(e.Categorize("terraform"), ShouldEqual, keywords.Technical)
				So(e.IsJunk("event sourcing"), ShouldBeFalse)
			})
		})

		Convey("When it replaces the tables", func() {
			path := filepath.Join(dir, "replace.yaml")
			So(os.WriteFile(path, []byte("replace: true\ntechnical: [cobol]\n"), 0o600), ShouldBeNil)

			v, err := keywords.LoadVocabulary(path)
			So(err, ShouldBeNil)
			So(v.Technical.Has("cobol"), ShouldBeTrue)
			So(v.Technical.Has("python"), ShouldBeFalse)
		})

		Convey("When replace has no whitelist", func() {
			path := filepath.Join(dir, "empty.yaml")
			So(os.WriteFile(path, []byte("replace: true\n"), 0o600), ShouldBeNil)

			_, err := keywords.LoadVocabulary(path)
			So(errors.Is(err, keywords.ErrVocabulary), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := keywords.LoadVocabulary(filepath.Join(dir, "missing.yaml"))
			So(errors.Is(err, keywords.ErrVocabulary), ShouldBeTrue)
		})
	})

	Convey("Given the default vocabulary", t, func() {
		v := keywords.DefaultVocabulary()

		Convey("Then TechnicalIn lists matching terms in order", func() {
			So(v.TechnicalIn("Docker and Kubernetes on AWS"), ShouldResemble, []string{"aws", "docker", "kubernetes"})
		})
	})
}
