package model

import "time"

// SurveyType distinguishes purely local surveys from ones bound to a
// DHIS2 program
type SurveyType string

const (
	SurveyTypeLocal SurveyType = "local"
	SurveyTypeDHIS2 SurveyType = "dhis2"
)

// SurveyLocationSettings configures the facility picker for a survey.
// The picker is active only when both InstanceKey and HierarchyLevel are
// set; otherwise it degrades to optional.
type SurveyLocationSettings struct {
	InstanceKey    string `json:"instanceKey,omitempty" bson:"instanceKey,omitempty"`
	HierarchyLevel int    `json:"hierarchyLevel,omitempty" bson:"hierarchyLevel,omitempty"`
	Required       bool   `json:"required" bson:"required"`
}

// Configured reports whether the facility picker has everything it needs.
func (s SurveyLocationSettings) Configured() bool {
	return s.InstanceKey != "" && s.HierarchyLevel > 0
}

// Survey is the top-level collection unit. Questions are referenced, not
// owned: the join rows carry the 1-based contiguous position that defines
// render and page order.
type Survey struct {
	ID              string                 `json:"id" bson:"_id,omitempty"`
	Name            string                 `json:"name" bson:"name"`
	Type            SurveyType             `json:"type" bson:"type"`
	IsActive        bool                   `json:"isActive" bson:"isActive"`
	StartDate       *time.Time             `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate         *time.Time             `json:"endDate,omitempty" bson:"endDate,omitempty"`
	DHIS2ProgramUID string                 `json:"dhis2ProgramUid,omitempty" bson:"dhis2ProgramUid,omitempty"`
	Location        SurveyLocationSettings `json:"location" bson:"location"`
	PageSize        int                    `json:"pageSize,omitempty" bson:"pageSize,omitempty"`
	CreatedAt       time.Time              `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt" bson:"updatedAt"`
}

// SurveyQuestion links a survey to a question at a position
type SurveyQuestion struct {
	SurveyID   string `json:"surveyId" bson:"surveyId"`
	QuestionID string `json:"questionId" bson:"questionId"`
	Position   int    `json:"position" bson:"position"`
}

// Open reports whether the survey currently accepts submissions.
func (s *Survey) Open(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return true
}
