package model

import "time"

// QuestionMapping binds a local question to at most one DHIS2 data
// element or tracked-entity attribute. At most one row exists per
// question; saving with an empty data element unmaps.
type QuestionMapping struct {
	QuestionID     string    `json:"questionId" bson:"_id"`
	DataElementID  string    `json:"dhis2DataElementId,omitempty" bson:"dataElementId,omitempty"`
	AttributeID    string    `json:"dhis2AttributeId,omitempty" bson:"attributeId,omitempty"`
	OptionSetID    string    `json:"dhis2OptionSetId,omitempty" bson:"optionSetId,omitempty"`
	ProgramStageID string    `json:"dhis2ProgramStageId,omitempty" bson:"programStageId,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// OptionSetMapping translates a single DHIS2 option code into the local
// value stored in submissions.
type OptionSetMapping struct {
	OptionSetID string `json:"dhis2OptionSetId" bson:"optionSetId"`
	OptionCode  string `json:"dhis2OptionCode" bson:"optionCode"`
	LocalValue  string `json:"localValue" bson:"localValue"`
}

// MappingBinding is the per-question payload of a bulk mapping save.
// An empty DataElementID means "unmap this question".
type MappingBinding struct {
	DataElementID string `json:"dataElementId,omitempty"`
	OptionSetID   string `json:"optionSetId,omitempty"`
}

// ExistingMapping is the reverse-lookup row shown to operators before
// they bind a remote element that some question already claims.
type ExistingMapping struct {
	DataElementID    string `json:"dataElementId"`
	DataElementLabel string `json:"dataElementLabel"`
	QuestionID       string `json:"questionId"`
	QuestionLabel    string `json:"mappedQuestionLabel"`
	SurveyID         string `json:"surveyId"`
	SurveyName       string `json:"surveyName"`
}
