package sections

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Score is the evaluation of one section.
type Score struct {
	SectionName      string   `json:"section_name"`
	Score            int      `json:"score"`
	Present          bool     `json:"present"`
	Completeness     float64  `json:"completeness"`
	Relevance        float64  `json:"relevance"`
	Feedback         string   `json:"feedback"`
	ImprovementAreas []string `json:"improvement_areas"`
}

// Scorer evaluates one kind of section against an optional job description.
type Scorer interface {
	Score(s Section, jobDesc string) Score
}

var (
	reEmail       = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.[a-z]{2,}`)
	rePhone       = regexp.MustCompile(`\+?\d[\d\s\-().]{7,}`)
	reSkillToken  = regexp.MustCompile(`\b[a-z][a-z0-9+#.]{1,20}\b`)
	reSkillGroups = regexp.MustCompile(`(technical|soft|tools|languages|frameworks)`)
	reBullet      = regexp.MustCompile(`[•\-\*]`)
	reQuantified  = regexp.MustCompile(`(?i)\d+%|\$[\d,]+|\d+\s*(users?|customers?|projects?|million|thousand)`)
	reDateToken   = regexp.MustCompile(`(?i)\b(20\d{2}|19\d{2}|jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\b`)
	reInstitution = regexp.MustCompile(`(university|college|institute|school)`)
	reYear        = regexp.MustCompile(`(20\d{2}|19\d{2})`)
	reGrade       = regexp.MustCompile(`(cgpa|gpa|percentage|grade)`)
	reTitleLine   = regexp.MustCompile(`\n[A-Z]`)
	reLink        = regexp.MustCompile(`(?i)(github|gitlab|demo|link|url|http)`)
	reBuildVerb   = regexp.MustCompile(`(?i)\b(built|developed|created|designed|implemented)\b`)
)

var actionVerbs = []string{
	"developed", "built", "led", "managed", "designed", "implemented",
	"improved", "created", "delivered", "achieved", "increased", "reduced",
}

var degreeTerms = []string{
	"bachelor", "master", "phd", "b.tech", "m.tech", "bsc", "msc", "b.e", "m.e", "degree", "diploma",
}

// contactScorer searches the whole resume as well as the section, since
// contact details usually sit above any labeled header.
type contactScorer struct {
	fullText string
}

func (c contactScorer) Score(s Section, _ string) Score {
	text := strings.ToLower(c.fullText + " " + s.Content)
	score := 40
	areas := []string{}

	if reEmail.MatchString(text) {
		score += 20
	} else {
		areas = append(areas, "Add your email address.")
	}
	if rePhone.MatchString(text) {
		score += 15
	} else {
		areas = append(areas, "Add your phone number.")
	}
	if strings.Contains(text, "linkedin") {
		score += 15
	} else {
		areas = append(areas, "Add your LinkedIn profile URL.")
	}
	if strings.Contains(text, "github") {
		score += 10
	} else {
		areas = append(areas, "Consider adding your GitHub profile.")
	}

	feedback := "Contact section is incomplete."
	if score > 60 {
		feedback = "Contact section present."
	}
	return Score{
		SectionName:      Contact.Title(),
		Score:            min(score, 100),
		Present:          true,
		Completeness:     float64(score) / 100,
		Relevance:        1.0,
		Feedback:         feedback,
		ImprovementAreas: areas,
	}
}

type summaryScorer struct{}

// Score awards length and overlap with the job description. A summary over
// 80 words is already past the 60-word bonus, so length is never flagged.
func (summaryScorer) Score(s Section, jobDesc string) Score {
	words := strings.Fields(s.Content)
	score := 50
	areas := []string{}

	if len(words) >= 30 {
		score += 25
	} else {
		areas = append(areas, "Expand your summary to at least 3-4 sentences (30+ words).")
	}
	if len(words) >= 60 {
		score += 15
	}
	if jobDesc != "" && overlap(fieldSet(jobDesc), fieldSet(s.Content)) > 5 {
		score += 10
	}

	feedback := "Summary needs more detail."
	if score > 60 {
		feedback = "Summary present."
	}
	return Score{
		SectionName:      Summary.Title(),
		Score:            min(score, 100),
		Present:          true,
		Completeness:     min(float64(len(words))/50, 1.0),
		Relevance:        0.7,
		Feedback:         feedback,
		ImprovementAreas: areas,
	}
}

type skillsScorer struct{}

func (skillsScorer) Score(s Section, jobDesc string) Score {
	content := strings.ToLower(s.Content)
	tokens := reSkillToken.FindAllString(content, -1)
	unique := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		unique[t] = struct{}{}
	}
	n := len(unique)
	score := 30
	areas := []string{}

	if n >= 5 {
		score += 20
	} else {
		areas = append(areas, "List at least 5-10 relevant skills.")
	}
	if n >= 10 {
		score += 20
	}
	if n >= 15 {
		score += 15
	}
	if reSkillGroups.MatchString(content) {
		score += 15
	} else {
		areas = append(areas, "Consider organizing skills into categories (e.g., Technical, Tools, Soft Skills).")
	}
	if jobDesc != "" && overlap(fieldSet(jobDesc), unique) > 3 {
		score += 10
	}

	return Score{
		SectionName:      Skills.Title(),
		Score:            min(score, 100),
		Present:          true,
		Completeness:     min(float64(n)/15, 1.0),
		Relevance:        0.8,
		Feedback:         fmt.Sprintf("Found approximately %d unique skills.", n),
		ImprovementAreas: areas,
	}
}

type experienceScorer struct{}

func (experienceScorer) Score(s Section, _ string) Score {
	content := s.Content
	lower := strings.ToLower(content)
	score := 20
	areas := []string{}

	bullets := len(reBullet.FindAllStringIndex(content, -1))
	if bullets >= 3 {
		score += 20
	} else {
		areas = append(areas, "Use bullet points to list your responsibilities and achievements.")
	}
	if reQuantified.MatchString(content) {
		score += 25
	} else {
		areas = append(areas, "Quantify your achievements (e.g., 'Improved performance by 30%', 'Managed team of 5').")
	}
	verbs := 0
	for _, v := range actionVerbs {
		if strings.Contains(lower, v) {
			verbs++
		}
	}
	if verbs >= 3 {
		score += 20
	} else {
		areas = append(areas, "Start bullet points with strong action verbs (e.g., Developed, Led, Implemented).")
	}
	if reDateToken.MatchString(content) {
		score += 15
	} else {
		areas = append(areas, "Include dates for each position (month/year format).")
	}

	feedback := "Experience section needs improvement."
	if score > 50 {
		feedback = "Experience section present."
	}
	return Score{
		SectionName:      Experience.Title(),
		Score:            min(score, 100),
		Present:          true,
		Completeness:     min(float64(bullets)/6, 1.0),
		Relevance:        0.9,
		Feedback:         feedback,
		ImprovementAreas: areas,
	}
}

type educationScorer struct{}

func (educationScorer) Score(s Section, _ string) Score {
	content := strings.ToLower(s.Content)
	score := 40
	areas := []string{}

	if containsAnyOf(content, degreeTerms) {
		score += 25
	} else {
		areas = append(areas, "Clearly state your degree (e.g., B.Tech in Computer Science).")
	}
	if reInstitution.MatchString(content) {
		score += 20
	} else {
		areas = append(areas, "Include your institution name.")
	}
	if reYear.MatchString(content) {
		score += 15
	} else {
		areas = append(areas, "Add your graduation year.")
	}
	if reGrade.MatchString(content) {
		score += 10
	}

	feedback := "Education section needs more detail."
	if score > 60 {
		feedback = "Education section present."
	}
	return Score{
		SectionName:      Education.Title(),
		Score:            min(score, 100),
		Present:          true,
		Completeness:     float64(score) / 100,
		Relevance:        0.7,
		Feedback:         feedback,
		ImprovementAreas: areas,
	}
}

type projectsScorer struct{}

// Score counts project entries as lines starting with a capital letter.
func (projectsScorer) Score(s Section, _ string) Score {
	content := s.Content
	score := 40
	areas := []string{}

	count := len(reTitleLine.FindAllStringIndex(content, -1))
	if count >= 2 {
		score += 20
	} else {
		areas = append(areas, "Include at least 2-3 projects.")
	}
	if reLink.MatchString(content) {
		score += 20
	} else {
		areas = append(areas, "Add GitHub links or demo URLs to your projects.")
	}
	if reBuildVerb.MatchString(content) {
		score += 20
	} else {
		areas = append(areas, "Describe what you built and the technologies used.")
	}

	return Score{
		SectionName:      Projects.Title(),
		Score:            min(score, 100),
		Present:          true,
		Completeness:     min(float64(count)/3, 1.0),
		Relevance:        0.8,
		Feedback:         "Projects section present.",
		ImprovementAreas: areas,
	}
}

type certificationsScorer struct{}

func (certificationsScorer) Score(s Section, _ string) Score {
	count := strings.Count(s.Content, "\n") + 1
	return Score{
		SectionName:  Certifications.Title(),
		Score:        70,
		Present:      true,
		Completeness: min(float64(count)/3, 1.0),
		Relevance:    0.6,
		Feedback:     "Certifications section present. Include issuing organization and date.",
		ImprovementAreas: []string{
			"Add the issuing organization for each certification.",
			"Include dates obtained.",
		},
	}
}

type achievementsScorer struct{}

func (achievementsScorer) Score(Section, string) Score {
	return Score{
		SectionName:      Achievements.Title(),
		Score:            75,
		Present:          true,
		Completeness:     0.8,
		Relevance:        0.6,
		Feedback:         "Achievements section present.",
		ImprovementAreas: []string{"Quantify achievements where possible."},
	}
}

// genericScorer handles sections without a dedicated scorer.
type genericScorer struct{}

func (genericScorer) Score(s Section, _ string) Score {
	words := len(strings.Fields(s.Content))
	title := cases.Title(language.Und).String(s.Name)
	return Score{
		SectionName:      title,
		Score:            min(50+words/5, 100),
		Present:          true,
		Completeness:     min(float64(words)/50, 1.0),
		Relevance:        0.5,
		Feedback:         title + " section detected.",
		ImprovementAreas: []string{},
	}
}

func fieldSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}

func containsAnyOf(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
