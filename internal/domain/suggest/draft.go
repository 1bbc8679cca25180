package suggest

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okian/atscore/internal/domain/keywords"
)

const (
	draftJobTerms    = 8
	draftResumeTerms = 12
	draftProjectRows = 20
	maxCertificates  = 4
	defaultRole      = "the target role"
)

// Draft is the material a section draft is built from.
type Draft struct {
	Role           string
	Mode           string
	JobDescription string
	Resume         string
	// Vocabulary supplies technical terms. The default vocabulary is used
	// when it is empty.
	Vocabulary keywords.Vocabulary
}

var (
	reParenthetical = regexp.MustCompile(`\(([^)]+)\)`)
	reNoisyLine     = regexp.MustCompile(`[@\d•-]`)
	reSkillsHeader  = regexp.MustCompile(`(?i)^SKILLS?\s*$`)
	reProjectHeader = regexp.MustCompile(`(?i)^PROJECTS?\s*$`)
	reOtherHeader   = regexp.MustCompile(`(?i)^(EDUCATION|EXPERIENCE|PROJECTS?|SKILLS?|CERT|AWARD|SUMM|PROFILE|CONTACT)`)
	reCategoryLine  = regexp.MustCompile(`^([^:]{2,50}):\s*(.+)$`)
)

var (
	institutionHints = []string{"university", "institute", "college", "iit", "nit", "bits", "vit", "srm", "manipal"}
	degreeHints      = []string{"b.tech", "bachelor", "m.tech", "master", "b.sc"}
	contactLabels    = []string{"email", "phone", "linkedin", "github", "address", "location", "website"}
	nonSkillLabels   = []string{"coursework", "relevant", "specializ", "email", "phone"}
	skillLabelWords  = []string{
		"programming", "language", "languages", "ai", "ml", "data", "science", "libraries",
		"tools", "developer", "frameworks", "technical", "skills", "software", "cloud",
	}
	languageTerms = []string{"python", "java", "c++", "r", "scala", "golang"}
	libraryTerms  = []string{"tensorflow", "pytorch", "keras", "numpy", "pandas", "scikit-learn", "fastapi", "matplotlib", "xgboost", "lightgbm"}
	titleCaser    = cases.Title(language.Und)
)

// SectionKey folds numbered entry ids such as proj_0 or exp_2 into their
// section name.
func SectionKey(section string) string {
	s := strings.ToLower(strings.TrimSpace(section))
	switch {
	case strings.HasPrefix(s, "proj_"):
		return "projects"
	case strings.HasPrefix(s, "exp_"):
		return "experience"
	}
	return s
}

// Template renders a section draft from the resume and job description
// without a Completer.
func Template(section string, d Draft) string {
	key := SectionKey(section)
	role := cmp.Or(d.Role, defaultRole)
	vocab := d.Vocabulary
	if vocab.Technical.Len() == 0 {
		vocab = keywords.DefaultVocabulary()
	}
	jobTerms := displayTerms(vocab, d.JobDescription, draftJobTerms)
	resumeTerms := displayTerms(vocab, d.Resume, draftResumeTerms)

	switch key {
	case "summary":
		return summaryTemplate(d, role, jobTerms, resumeTerms)
	case "skills":
		return skillsTemplate(d.Resume, jobTerms)
	case "projects":
		return projectsTemplate(d.Resume, resumeTerms)
	case "certifications":
		return certificationsTemplate(d.JobDescription, jobTerms)
	case "experience", "contact":
		return "[Job Title] | [Company Name] | [Start] to [End]\n" +
			"- Achieved [X]% improvement in [metric] using [technology/approach]\n" +
			"- Built [what] that [outcome with number]\n" +
			"- Collaborated with [team] to deliver [result] on time"
	}
	return fmt.Sprintf("[Add your %s content here for role: %s]", key, role)
}

// displayTerms lists technical terms longer than three characters found in
// text, longest first. Single words are title cased.
func displayTerms(v keywords.Vocabulary, text string, limit int) []string {
	var found []string
	for _, t := range v.TechnicalIn(text) {
		if len(t) > 3 {
			found = append(found, t)
		}
	}
	slices.SortStableFunc(found, func(a, b string) int { return cmp.Compare(len(b), len(a)) })
	found = found[:min(limit, len(found))]
	for i, t := range found {
		if !strings.Contains(t, " ") {
			found[i] = titleCaser.String(t)
		}
	}
	return found
}

func joinOr(items []string, n int, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items[:min(n, len(items))], ", ")
}

func summaryTemplate(d Draft, role string, jobTerms, resumeTerms []string) string {
	school, area := "", "Computer Science"
	for _, line := range strings.Split(d.Resume, "\n") {
		l := strings.TrimSpace(line)
		lower := strings.ToLower(l)
		if containsAny(lower, institutionHints) && len(l) < 60 && !reNoisyLine.MatchString(l) {
			school = l
		}
		if containsAny(lower, degreeHints) {
			if m := reParenthetical.FindStringSubmatch(l); m != nil {
				area = m[1]
			}
		}
	}
	if school == "" {
		school = "my university"
	}
	skills := joinOr(resumeTerms, 3, "software engineering fundamentals")
	focus := joinOr(jobTerms, 3, "the core technologies of the role")

	if isEntryLevel(d.Mode) {
		return fmt.Sprintf("%s student at %s with hands-on project experience using %s. Seeking a %s role to apply skills in %s.",
			area, school, skills, role, focus)
	}
	return fmt.Sprintf("Professional with delivery experience in %s. Proven track record shipping production systems. Seeking a %s position to drive impact through %s.",
		skills, role, focus)
}

// skillsTemplate keeps the resume's "Category: items" lines and appends job
// terms to language and library categories.
func skillsTemplate(resume string, jobTerms []string) string {
	var lines []string
	inSkills := false
	for _, line := range strings.Split(resume, "\n") {
		l := strings.TrimSpace(line)
		if reSkillsHeader.MatchString(l) {
			inSkills = true
			continue
		}
		if inSkills && len(l) < 30 && reOtherHeader.MatchString(l) {
			inSkills = false
			continue
		}
		m := reCategoryLine.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		label, items := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		lower := strings.ToLower(label)
		words := strings.Fields(lower)
		if len(words) == 0 || slices.Contains(contactLabels, words[0]) || containsAny(lower, nonSkillLabels) {
			continue
		}
		if !inSkills && !slices.ContainsFunc(words, func(w string) bool { return slices.Contains(skillLabelWords, w) }) {
			continue
		}

		var pool []string
		switch {
		case strings.Contains(lower, "lang"):
			pool = languageTerms
		case containsAny(lower, []string{"lib", "frame", "tool"}) && !strings.Contains(lower, "developer"):
			pool = libraryTerms
		}
		for _, t := range jobTerms {
			lt := strings.ToLower(t)
			if slices.Contains(pool, lt) && !strings.Contains(strings.ToLower(items), lt) {
				items += ", " + t
			}
		}
		lines = append(lines, label+": "+items)
	}
	if len(lines) > 0 {
		return strings.Join(lines, "\n")
	}
	return "Programming Languages: [your languages]\n" +
		"Frameworks & Libraries: [your frameworks]\n" +
		"Tools & Platforms: Git, [your tools]\n" +
		"Concepts: " + joinOr(jobTerms, 5, "relevant technologies")
}

func projectsTemplate(resume string, resumeTerms []string) string {
	var rows []string
	in := false
	for _, line := range strings.Split(resume, "\n") {
		l := strings.TrimSpace(line)
		if reProjectHeader.MatchString(l) {
			in = true
			continue
		}
		if !in {
			continue
		}
		if len(l) < 25 && reOtherHeader.MatchString(l) {
			break
		}
		if l != "" {
			rows = append(rows, l)
		}
	}
	if len(rows) > 0 {
		return strings.Join(rows[:min(draftProjectRows, len(rows))], "\n")
	}
	return fmt.Sprintf("[Project Name] | %s\n- Achieved [X]%% improvement on [N] samples using [approach]\n- Deployed as [app/API] with [metric] performance",
		joinOr(resumeTerms, 3, "[tech stack]"))
}

func certificationsTemplate(jobDesc string, jobTerms []string) string {
	jd := strings.ToLower(jobDesc)
	terms := strings.ToLower(strings.Join(jobTerms, ", "))
	var certs []string
	if containsAny(terms, []string{"machine learning", "deep learning", "tensorflow", "pytorch"}) {
		certs = append(certs, "Machine Learning Specialization | Coursera (DeepLearning.AI) | 3 months")
	}
	if strings.Contains(jd, "sql") {
		certs = append(certs, "SQL for Data Science | Coursera | 2-4 weeks")
	}
	if containsAny(jd, []string{"aws", "sagemaker"}) {
		certs = append(certs, "AWS Certified Solutions Architect Associate | Amazon | 2-3 months")
	}
	if containsAny(jd, []string{"kubernetes", "k8s"}) {
		certs = append(certs, "Certified Kubernetes Application Developer | CNCF | 4-6 weeks")
	}
	if containsAny(jd, []string{"tableau", "powerbi", "visualization"}) {
		certs = append(certs, "Tableau Desktop Specialist | Tableau | 4-6 weeks")
	}
	certs = append(certs, "Python for Data Science and AI | IBM / Coursera | 5 weeks")

	certs = certs[:min(maxCertificates, len(certs))]
	for i, c := range certs {
		certs[i] = "- " + c
	}
	return strings.Join(certs, "\n")
}

// draftPrompt asks for section content grounded in the candidate's resume.
func draftPrompt(section string, d Draft) string {
	key := SectionKey(section)
	role := cmp.Or(d.Role, defaultRole)
	audience := "an experienced professional"
	if isEntryLevel(d.Mode) {
		audience = "a student or fresher"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an ATS resume expert helping %s targeting %s.\n\n", audience, role)
	fmt.Fprintf(&b, "CURRENT RESUME:\n%s\n\n", prefix(d.Resume, 2000))
	fmt.Fprintf(&b, "JOB DESCRIPTION:\n%s\n\n", prefix(d.JobDescription, 1200))
	switch key {
	case "summary":
		b.WriteString("Write a 3-4 sentence professional summary under 80 words. Base it on the candidate's actual experience and mention 2-3 skills from the job description. Avoid cliches.")
	case "skills":
		b.WriteString("Rewrite the skills section. Keep every existing category and item, add job description skills the candidate plausibly has, and return only lines in the form 'Category: item1, item2'.")
	case "projects":
		b.WriteString("Rewrite the project entries with action verbs, concrete metrics and relevant job description keywords. Keep real project names. Format: 'ProjectName | TechStack' followed by '- bullet' lines.")
	case "certifications":
		b.WriteString("Suggest 3-4 real certifications relevant to the role, one per line as '- Name | Platform | Duration'.")
	default:
		fmt.Fprintf(&b, "Write the %s section.", key)
	}
	b.WriteString("\nReturn only the section content, no labels or explanation.")
	return b.String()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
