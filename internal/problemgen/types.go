package problemgen

import (
	"time"

	"github.com/abhisek/adaptiq/internal/catalog"
)

// GeneratedQuestion is a multiple-choice question instantiated from a
// template for one session.
type GeneratedQuestion struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`

	// QuestionText is the template text with every variable substituted.
	QuestionText string `json:"question_text"`

	// Options holds the correct answer and its distractors in shuffled
	// order. Exactly one option equals CorrectAnswer.
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correct_option_index"`
	CorrectAnswer      string   `json:"correct_answer"`

	ExplanationText string `json:"explanation_text"`

	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`

	Subject    string       `json:"subject"`
	SkillArea  string       `json:"skill_area"`
	Type       catalog.Type `json:"type"`
	Difficulty int          `json:"difficulty"`

	// Stable marks questions served from the precompiled batches.
	Stable bool `json:"stable"`
}

// Clone returns a deep copy.
func (q *GeneratedQuestion) Clone() *GeneratedQuestion {
	c := *q
	c.Options = append([]string(nil), q.Options...)
	return &c
}

// Mode labels where a question came from, for logs and metrics.
type Mode string

const (
	ModeTemplate Mode = "template"
	ModeStable   Mode = "stable"
)
