package model

import "time"

// FormSession is the server-side state of one survey taker working
// through a paginated form. Stored in Redis with a TTL; abandoned
// sessions simply expire.
type FormSession struct {
	ID           string              `json:"id"`
	SurveyID     string              `json:"surveyId"`
	Lang         string              `json:"lang,omitempty"`
	CurrentPage  int                 `json:"currentPage"`
	Answers      map[string][]string `json:"answers"` // questionID -> values
	FacilityID   string              `json:"facilityId,omitempty"`
	FacilityPath string              `json:"facilityPath,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}
