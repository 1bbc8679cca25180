package keywords

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/atscore/internal/domain/textnorm"
)

// Minimum whitelist term lengths for substring categorization.
const (
	minTechSubstringLen = 6
	minSoftSubstringLen = 8
)

// Vocabulary holds the term tables used to classify and filter keywords.
// A Vocabulary is immutable once built.
type Vocabulary struct {
	Technical   textnorm.Set
	SoftSkills  textnorm.Set
	JunkWords   textnorm.Set
	JunkBigrams textnorm.Set

	// long members of Technical and SoftSkills, sorted, for substring matches
	longTech []string
	longSoft []string
}

// NewVocabulary builds a Vocabulary from explicit term lists.
func NewVocabulary(technical, softSkills, junkWords, junkBigrams []string) Vocabulary {
	v := Vocabulary{
		Technical:   textnorm.NewSet(lowerAll(technical)...),
		SoftSkills:  textnorm.NewSet(lowerAll(softSkills)...),
		JunkWords:   textnorm.NewSet(lowerAll(junkWords)...),
		JunkBigrams: textnorm.NewSet(lowerAll(junkBigrams)...),
	}
	v.longTech = longMembers(v.Technical, minTechSubstringLen)
	v.longSoft = longMembers(v.SoftSkills, minSoftSubstringLen)
	return v
}

// DefaultVocabulary returns the built-in term tables.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary(techTerms, softSkillTerms, junkWords, junkBigrams)
}

// vocabularyFile is the YAML layout accepted by LoadVocabulary.
type vocabularyFile struct {
	Replace     bool     `koanf:"replace"`
	Technical   []string `koanf:"technical"`
	SoftSkills  []string `koanf:"soft_skills"`
	JunkWords   []string `koanf:"junk_words"`
	JunkBigrams []string `koanf:"junk_bigrams"`
}

// LoadVocabulary reads term tables from a YAML file. Lists are added to the
// built-in tables unless the file sets replace: true.
//
//	replace: false
//	technical: [terraform, "event sourcing"]
//	junk_words: [perks]
func LoadVocabulary(path string) (Vocabulary, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Vocabulary{}, fmt.Errorf("%w: %s: %w", ErrVocabulary, path, err)
	}
	var vf vocabularyFile
	if err := k.Unmarshal("", &vf); err != nil {
		return Vocabulary{}, fmt.Errorf("%w: %s: %w", ErrVocabulary, path, err)
	}
	if vf.Replace {
		if len(vf.Technical) == 0 && len(vf.SoftSkills) == 0 {
			return Vocabulary{}, fmt.Errorf("%w: %s: replace requires technical or soft_skills terms", ErrVocabulary, path)
		}
		return NewVocabulary(vf.Technical, vf.SoftSkills, vf.JunkWords, vf.JunkBigrams), nil
	}
	return NewVocabulary(
		append(append([]string(nil), techTerms...), vf.Technical...),
		append(append([]string(nil), softSkillTerms...), vf.SoftSkills...),
		append(append([]string(nil), junkWords...), vf.JunkWords...),
		append(append([]string(nil), junkBigrams...), vf.JunkBigrams...),
	), nil
}

// TechnicalIn returns the technical terms that occur as whole words or
// phrases in text, sorted.
func (v Vocabulary) TechnicalIn(text string) []string {
	fields := strings.Fields(textnorm.Normalize(text))
	for i, f := range fields {
		fields[i] = strings.TrimRight(f, "./")
	}
	padded := " " + strings.Join(fields, " ") + " "
	var out []string
	for _, t := range v.Technical.Sorted() {
		if strings.Contains(padded, " "+t+" ") {
			out = append(out, t)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func longMembers(s textnorm.Set, minLen int) []string {
	var out []string
	for _, w := range s.Sorted() {
		if utf8.RuneCountInString(w) >= minLen {
			out = append(out, w)
		}
	}
	return out
}

var techTerms = []string{
	// languages
	"python", "java", "javascript", "typescript", "c++", "c#", "golang", "rust",
	"scala", "kotlin", "swift", "r", "matlab", "bash", "shell",
	// web / backend
	"react", "angular", "vue", "nodejs", "django", "flask", "fastapi", "spring",
	"graphql", "rest", "api", "microservices",
	// data / ml
	"scikit-learn", "scikit", "pandas", "numpy", "matplotlib", "seaborn",
	"tensorflow", "pytorch", "keras", "mxnet", "jax", "xgboost", "lightgbm",
	"catboost", "huggingface", "transformers", "bert", "gpt", "opencv", "fastai",
	"machine learning", "deep learning", "nlp", "llm", "computer vision",
	"natural language processing", "reinforcement learning",
	"supervised learning", "unsupervised learning", "semi-supervised",
	"classification", "regression", "clustering", "decision tree", "random forest",
	"neural network", "neural networks", "convolutional", "cnn", "rnn", "lstm",
	"transformer", "attention mechanism", "transfer learning",
	"feature engineering", "data preprocessing", "model optimization",
	"hyperparameter tuning", "cross-validation", "dimensionality reduction",
	"time series", "linear algebra", "probability", "statistics",
	"data visualization", "data analysis", "exploratory data analysis", "eda",
	// databases
	"sql", "nosql", "mongodb", "postgresql", "mysql", "redis", "elasticsearch",
	"bigquery", "hive", "spark sql",
	// big data / cloud
	"spark", "hadoop", "kafka", "airflow", "prefect", "luigi",
	"aws", "azure", "gcp", "sagemaker", "vertex ai", "azure ml",
	"docker", "kubernetes", "ci/cd",
	// tools
	"git", "github", "gitlab", "jupyter", "colab", "streamlit", "gradio",
	"mlflow", "wandb", "dvc", "dagshub", "databricks",
	"tableau", "powerbi", "looker",
	// practices
	"agile", "scrum", "devops", "version control", "open source",
	// compound phrases kept whole
	"numpy pandas", "pandas scikit", "scikit learn",
	"tensorflow pytorch", "model deployment",
}

var softSkillTerms = []string{
	"leadership", "communication", "teamwork", "collaboration", "problem solving",
	"analytical", "creative", "innovative", "organized", "detail oriented",
	"time management", "adaptable", "proactive", "critical thinking",
	"presentation", "negotiation", "mentoring", "cross-functional",
	"stakeholder management", "independent", "self-motivated", "problem-solving",
}

// junkWords are posting boilerplate, generic descriptors and filler.
var junkWords = []string{
	"bonus", "currently", "pursuing", "recently", "completed", "ideal", "motivated",
	"passionate", "enthusiastic", "eager", "willing", "ready", "able", "capable",
	"seeking", "hire", "hiring", "join", "apply", "responsible", "responsibilities",
	"eligibility", "candidate", "candidates", "required", "requirement", "requirements",
	"preferred", "advantage", "plus", "opportunity", "offer", "certificate", "stipend",
	"salary", "pay", "compensation", "remote", "location", "company", "duration",
	"full", "time", "part", "month", "months", "year", "years", "week", "day",

	"strong", "good", "excellent", "solid", "proficient", "familiar", "familiarity",
	"basic", "advanced", "various", "multiple", "several", "large", "small", "big",
	"new", "current", "future", "past", "previous", "key", "core", "primary", "main",
	"major", "minor", "high", "low", "wide", "deep", "broad", "extensive", "modern",
	"latest", "cutting", "edge", "state", "art", "best", "standard", "practice",

	"write", "writing", "written", "clean", "documented", "document", "following",
	"implement", "explore", "evaluate", "assist", "collaborate", "perform", "design",
	"develop", "build", "create", "work", "understand", "understanding", "knowledge",
	"experience", "exposure", "ability", "skills", "skill", "tool",
	"tools", "platform", "platforms", "framework", "frameworks", "library", "libraries",
	"package", "packages", "language", "languages", "code", "coding", "programming",
	"software", "hardware", "system", "systems", "solution", "solutions", "approach",
	"method", "methods", "technique", "techniques", "algorithm", "algorithms",
	"model", "models", "data", "project", "projects", "team", "teams", "role", "roles",
	"function", "functions", "feature", "features", "aspect", "aspects",

	"including", "using", "across", "within", "between", "based", "focused", "driven",
	"oriented", "related", "specific", "general", "level", "levels", "range",
	"value", "impact", "result", "results", "outcome", "outcomes", "goal", "goals",
	"objective", "objectives", "task", "tasks", "real", "world", "industry",
	"professional", "professionals", "experienced", "live", "production",
	"research", "engineering", "science", "artificial", "intelligence",
	"internship", "intern", "upon", "successful", "completion",
	"inficore", "soft", "kaggle", "competitions", "github", "contributions",
	"compute", "computing", "distributed", "ranking", "problems", "scale",
	"inference", "deploy", "deploying", "efficient", "efficiency",
	"effective", "effectively", "well",
	"exploratory", "optimize", "optimization", "performance", "accuracy",
}

var junkBigrams = []string{
	"documented python", "clean well", "well documented", "bonus experience",
	"bonus kaggle", "ai products", "cloud platforms", "version control",
	"open source", "engineering best", "best practices", "computing frameworks",
	"distributed computing", "large scale", "write clean", "code following",
	"following engineering", "platforms gcp", "ranking problems",
	"using distributed", "optimize model", "engineer intern",
	"software engineer", "exploratory data", "data analysis",
	"currently pursuing", "recently completed", "data scientists", "live ai",
	"full time", "stipend 15", "15 000", "000 month", "per month", "what offer",
	"inficore soft", "artificial intelligence",
	"rank problems", "explore deep", "signal based", "image text",
}
