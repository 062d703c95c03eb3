// Package questionnaire loads the review questionnaire definition.
// The questionnaire is static configuration: the API serves it to the front
// end and uses it to reject answers to unknown questions.
package questionnaire

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Option is one selectable answer for a question.
type Option struct {
	Value float64 `yaml:"value" json:"value"`
	Label string  `yaml:"label" json:"label"`
}

// Question is a single questionnaire item.
type Question struct {
	ID            string   `yaml:"id" json:"id"`
	Text          string   `yaml:"text" json:"text"`
	Options       []Option `yaml:"options" json:"options"`
	AboutReviewer bool     `yaml:"about_reviewer,omitempty" json:"about_reviewer,omitempty"`
}

// Questionnaire is the ordered question list.
type Questionnaire struct {
	Questions []Question `yaml:"questions" json:"questions"`

	index map[string]struct{}
}

var (
	// ErrEmptyDefinition indicates the payload had no content.
	ErrEmptyDefinition = errors.New("questionnaire: definition payload is empty")
	// ErrDuplicateQuestion indicates two questions share an id.
	ErrDuplicateQuestion = errors.New("questionnaire: duplicate question id")
	// ErrMissingQuestionID indicates a question without an id.
	ErrMissingQuestionID = errors.New("questionnaire: question id is required")
)

// Parse decodes a questionnaire from YAML (or JSON) bytes.
func Parse(data []byte) (*Questionnaire, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDefinition
	}

	var q Questionnaire
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("questionnaire: decode: %w", err)
	}

	q.index = make(map[string]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		id := strings.TrimSpace(question.ID)
		if id == "" {
			return nil, fmt.Errorf("%w (question %d)", ErrMissingQuestionID, i+1)
		}
		if _, dup := q.index[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateQuestion, id)
		}
		q.Questions[i].ID = id
		if q.Questions[i].Options == nil {
			q.Questions[i].Options = []Option{}
		}
		q.index[id] = struct{}{}
	}

	return &q, nil
}

// LoadFile reads a questionnaire from path.
func LoadFile(path string) (*Questionnaire, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("questionnaire: read %s: %w", path, err)
	}
	q, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

// Empty returns a questionnaire with no questions. It accepts any question id.
func Empty() *Questionnaire {
	return &Questionnaire{Questions: []Question{}}
}

// HasQuestion reports whether id names a known question. An empty
// questionnaire knows every id, so answers are unchecked when none is loaded.
func (q *Questionnaire) HasQuestion(id string) bool {
	if q == nil || len(q.Questions) == 0 {
		return true
	}
	_, ok := q.index[id]
	return ok
}
