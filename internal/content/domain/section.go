package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/goccy/go-json"
)

// Well-known section names rendered by the public site.
const (
	SectionPersonalInfo = "personal_info"
	SectionAbout        = "about"
	SectionClients      = "clients"
	SectionResume       = "resume"
	SectionPortfolio    = "portfolio"
	SectionBlog         = "blog"
)

var (
	ErrInvalidSection = errors.New("section must be 1-64 lowercase letters, digits or underscores")
	ErrInvalidContent = errors.New("content must be valid JSON")
)

var sectionPattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// Section is one named JSON document of the public portfolio.
type Section struct {
	Section   string          `json:"section"`
	Content   json.RawMessage `json:"content"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ValidateSection checks the section name and that content is a JSON value.
func ValidateSection(name string, content []byte) error {
	if !sectionPattern.MatchString(name) {
		return ErrInvalidSection
	}
	if len(content) == 0 || !json.Valid(content) {
		return ErrInvalidContent
	}
	return nil
}

// ItemCount returns the number of elements when content is a JSON array, else 0.
func ItemCount(content []byte) int {
	var items []json.RawMessage
	if err := json.Unmarshal(content, &items); err != nil {
		return 0
	}
	return len(items)
}
