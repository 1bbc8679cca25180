package sections

import (
	"fmt"
	"strings"
)

const missingSectionPenalty = 10

// Report aggregates section scores into an overall completeness grade.
type Report struct {
	TotalScore      int              `json:"total_score"`
	PresentSections []string         `json:"present_sections"`
	MissingSections []string         `json:"missing_sections"`
	SectionScores   map[string]Score `json:"section_scores"`
	OverallFeedback string           `json:"overall_feedback"`
}

// Evaluator scores sections of one resume. The full resume text is fixed for
// its lifetime; create one per analysis.
type Evaluator struct {
	fullText string
}

// NewEvaluator creates an Evaluator for the given resume text.
func NewEvaluator(fullResumeText string) *Evaluator {
	return &Evaluator{fullText: fullResumeText}
}

// ScorerFor returns the scorer for a kind.
func (e *Evaluator) ScorerFor(k Kind) Scorer {
	switch k {
	case Contact:
		return contactScorer{fullText: e.fullText}
	case Summary:
		return summaryScorer{}
	case Skills:
		return skillsScorer{}
	case Experience:
		return experienceScorer{}
	case Education:
		return educationScorer{}
	case Projects:
		return projectsScorer{}
	case Certifications:
		return certificationsScorer{}
	case Achievements:
		return achievementsScorer{}
	case Other:
		return genericScorer{}
	}
	return genericScorer{}
}

// Score evaluates one section.
func (e *Evaluator) Score(s Section, jobDesc string) Score {
	return e.ScorerFor(s.Kind).Score(s, jobDesc)
}

// Completeness scores every section without a job description, averages
// the scores and subtracts a penalty per missing required section.
func (e *Evaluator) Completeness(found Sections) Report {
	kinds := found.Kinds()
	present := make([]string, 0, len(kinds))
	scores := make(map[string]Score, len(kinds))
	sum := 0
	for _, k := range kinds {
		sc := e.Score(found[k], "")
		present = append(present, k.String())
		scores[k.String()] = sc
		sum += sc.Score
	}

	missing := []string{}
	for _, k := range Required {
		if _, ok := found[k]; !ok {
			missing = append(missing, k.String())
		}
	}

	total := 0
	if len(scores) > 0 {
		total = sum / len(scores)
	}
	total = max(0, total-len(missing)*missingSectionPenalty)

	return Report{
		TotalScore:      total,
		PresentSections: present,
		MissingSections: missing,
		SectionScores:   scores,
		OverallFeedback: overallFeedback(missing, total),
	}
}

func overallFeedback(missing []string, total int) string {
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("Missing critical sections: %s.", strings.Join(missing, ", ")))
	}
	switch {
	case total >= 80:
		parts = append(parts, "Overall resume structure is strong.")
	case total >= 60:
		parts = append(parts, "Resume structure is adequate but has room for improvement.")
	default:
		parts = append(parts, "Resume structure needs significant improvement.")
	}
	return strings.Join(parts, " ")
}
