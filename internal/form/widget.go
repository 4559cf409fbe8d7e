package form

import (
	"fmt"

	"healthsurveys/internal/model"
)

// WidgetKind is the concrete input control a question renders as
type WidgetKind string

const (
	WidgetText     WidgetKind = "text"
	WidgetTextarea WidgetKind = "textarea"
	WidgetSelect   WidgetKind = "select"
	WidgetRadio    WidgetKind = "radio"
	WidgetCheckbox WidgetKind = "checkbox"
	WidgetRating   WidgetKind = "rating"
)

// WidgetOption is one candidate value with its display label resolved
// for the active language.
type WidgetOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Widget is the render model for a single question: the control kind,
// the submitted field name, the label in the active language and, for
// option-backed kinds, the candidate values.
type Widget struct {
	QuestionID  string         `json:"questionId"`
	Kind        WidgetKind     `json:"kind"`
	FieldName   string         `json:"fieldName"`
	Label       string         `json:"label"`
	Required    bool           `json:"required"`
	Placeholder string         `json:"placeholder,omitempty"` // select only, non-selectable first entry
	Options     []WidgetOption `json:"options,omitempty"`
	Stars       int            `json:"stars,omitempty"` // rating only
}

// ResolveWidget maps a question and its option set to the widget the
// form renders. options may be nil for text and textarea questions.
// Radio and checkbox groups are named by question ID so each group
// validates independently; checkbox fields carry []-suffix set
// semantics.
func ResolveWidget(q *model.Question, options *model.OptionSet, lang string) Widget {
	w := Widget{
		QuestionID: q.ID,
		FieldName:  fmt.Sprintf("question_%s", q.ID),
		Label:      q.LabelIn(lang),
		Required:   q.Required,
	}

	switch q.Type {
	case model.QuestionTypeTextarea:
		w.Kind = WidgetTextarea
	case model.QuestionTypeSelect:
		w.Kind = WidgetSelect
		w.Placeholder = "-- select --"
		w.Options = resolveOptions(options, lang)
	case model.QuestionTypeRadio:
		w.Kind = WidgetRadio
		w.Options = resolveOptions(options, lang)
	case model.QuestionTypeCheckbox:
		w.Kind = WidgetCheckbox
		w.FieldName += "[]"
		w.Options = resolveOptions(options, lang)
	case model.QuestionTypeRating:
		w.Kind = WidgetRating
		if options != nil {
			w.Stars = len(options.Values)
		}
	default:
		w.Kind = WidgetText
	}

	return w
}

func resolveOptions(set *model.OptionSet, lang string) []WidgetOption {
	if set == nil {
		return nil
	}
	opts := make([]WidgetOption, 0, len(set.Values))
	for i := range set.Values {
		v := &set.Values[i]
		opts = append(opts, WidgetOption{
			Value: v.Value,
			Label: v.ValueIn(lang),
		})
	}
	return opts
}
