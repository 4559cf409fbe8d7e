package model

import "time"

// OptionValue is a single selectable value inside an option set
type OptionValue struct {
	ID           string            `json:"id" bson:"id"`
	Value        string            `json:"value" bson:"value"`
	Translations map[string]string `json:"translations,omitempty" bson:"translations,omitempty"` // langCode -> display text
}

// OptionSet is a named, ordered list of values shared across questions.
// The stored order is canonical: it is both the display order and the
// 1-based index order rating widgets count stars by.
type OptionSet struct {
	ID        string        `json:"id" bson:"_id,omitempty"`
	Name      string        `json:"name" bson:"name"`
	Values    []OptionValue `json:"values" bson:"values"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// ValueIn returns the display text for the option in the given language,
// falling back to the canonical value.
func (o *OptionValue) ValueIn(lang string) string {
	if v, ok := o.Translations[lang]; ok && v != "" {
		return v
	}
	return o.Value
}
