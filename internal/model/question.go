package model

import "time"

// QuestionType defines the input widget a question renders as
type QuestionType string

const (
	QuestionTypeText     QuestionType = "text"     // Single-line input
	QuestionTypeTextarea QuestionType = "textarea" // Multi-line input
	QuestionTypeRadio    QuestionType = "radio"    // Mutually exclusive option group
	QuestionTypeCheckbox QuestionType = "checkbox" // Multi-select option group
	QuestionTypeSelect   QuestionType = "select"   // Single-choice dropdown
	QuestionTypeRating   QuestionType = "rating"   // Star widget, max stars = option count
)

// Question is an entry in the question bank. It is referenced by surveys
// via SurveyQuestion and becomes immutable once any submission answers it.
type Question struct {
	ID           string            `json:"id" bson:"_id,omitempty"`
	Label        string            `json:"label" bson:"label"`
	Type         QuestionType      `json:"type" bson:"type"`
	Required     bool              `json:"required" bson:"required"`
	Translations map[string]string `json:"translations,omitempty" bson:"translations,omitempty"` // langCode -> label
	OptionSetID  string            `json:"optionSetId,omitempty" bson:"optionSetId,omitempty"`
	CreatedAt    time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// HasOptions reports whether the question type draws candidate values
// from an option set.
func (t QuestionType) HasOptions() bool {
	switch t {
	case QuestionTypeRadio, QuestionTypeCheckbox, QuestionTypeSelect, QuestionTypeRating:
		return true
	}
	return false
}

// IsMulti reports whether the question submits a set of values rather
// than a scalar.
func (t QuestionType) IsMulti() bool {
	return t == QuestionTypeCheckbox
}

// LabelIn returns the question label for the given language, falling back
// to the canonical label when no translation exists.
func (q *Question) LabelIn(lang string) string {
	if v, ok := q.Translations[lang]; ok && v != "" {
		return v
	}
	return q.Label
}
