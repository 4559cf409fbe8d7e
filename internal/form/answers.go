package form

import (
	"strconv"
	"strings"

	"healthsurveys/internal/model"
)

// Answers holds the values entered so far, keyed by question ID.
// Checkbox questions hold a set of values; every other type holds a
// single entry.
type Answers map[string][]string

// Set replaces the values for a question.
func (a Answers) Set(questionID string, values ...string) {
	a[questionID] = values
}

// Scalar returns the single value for a question, trimmed.
func (a Answers) Scalar(questionID string) string {
	vs := a[questionID]
	if len(vs) == 0 {
		return ""
	}
	return strings.TrimSpace(vs[0])
}

// Satisfies reports whether the answer fulfils the question's required
// constraint: trimmed non-empty for text types, at least one selected
// member for option groups, a positive integer for ratings.
func (a Answers) Satisfies(q *model.Question) bool {
	switch q.Type {
	case model.QuestionTypeRadio, model.QuestionTypeCheckbox:
		for _, v := range a[q.ID] {
			if strings.TrimSpace(v) != "" {
				return true
			}
		}
		return false
	case model.QuestionTypeRating:
		n, err := strconv.Atoi(a.Scalar(q.ID))
		return err == nil && n > 0
	default:
		return a.Scalar(q.ID) != ""
	}
}
