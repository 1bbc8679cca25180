// Package sections splits resume text into named sections and scores each
// one with rule-based checks.
package sections

import (
	"encoding/json"
	"fmt"
)

// Kind identifies a resume section category.
type Kind int

// Section kinds in detection order. Other covers any section without a
// dedicated scorer.
const (
	Other Kind = iota
	Contact
	Summary
	Skills
	Experience
	Education
	Projects
	Certifications
	Achievements
)

// detectionOrder is the order in which kinds are tried against a line.
var detectionOrder = []Kind{Contact, Summary, Skills, Experience, Education, Projects, Certifications, Achievements}

// Required lists the sections whose absence is penalized, in report order.
var Required = []Kind{Contact, Skills, Experience, Education}

var kindNames = map[Kind]string{
	Other:          "other",
	Contact:        "contact",
	Summary:        "summary",
	Skills:         "skills",
	Experience:     "experience",
	Education:      "education",
	Projects:       "projects",
	Certifications: "certifications",
	Achievements:   "achievements",
}

var kindTitles = map[Kind]string{
	Contact:        "Contact Information",
	Summary:        "Professional Summary",
	Skills:         "Skills",
	Experience:     "Work Experience",
	Education:      "Education",
	Projects:       "Projects",
	Certifications: "Certifications",
	Achievements:   "Achievements",
}

// String returns the lowercase section key.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Title returns the display name used in scores.
func (k Kind) Title() string {
	return kindTitles[k]
}

// IsRequired reports whether k is one of the Required sections.
func (k Kind) IsRequired() bool {
	for _, r := range Required {
		if r == k {
			return true
		}
	}
	return false
}

// ParseKind resolves a lowercase section key. Unknown keys yield Other.
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return Other
}

// MarshalJSON encodes the kind as its key.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind key.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*k = ParseKind(s)
	return nil
}
