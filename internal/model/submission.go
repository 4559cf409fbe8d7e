package model

import "time"

// Response is one answered question inside a submission. Checkbox
// questions store a value set; every other type stores a single value.
type Response struct {
	QuestionID string   `json:"questionId" bson:"questionId"`
	Values     []string `json:"values" bson:"values"`
}

// Value returns the scalar form of the response.
func (r Response) Value() string {
	if len(r.Values) == 0 {
		return ""
	}
	return r.Values[0]
}

// Submission is a completed survey response. Immutable after creation
// except for admin delete.
type Submission struct {
	ID         string     `json:"id" bson:"_id,omitempty"`
	UID        string     `json:"uid" bson:"uid"`
	SurveyID   string     `json:"surveyId" bson:"surveyId"`
	LocationID string     `json:"locationId,omitempty" bson:"locationId,omitempty"`
	Hierarchy  string     `json:"hierarchyData,omitempty" bson:"hierarchyData,omitempty"`
	Responses  []Response `json:"responses" bson:"responses"`
	CreatedAt  time.Time  `json:"created" bson:"createdAt"`
}

// TrackerSubmission stores DHIS2 tracker payloads as a single blob:
// tracked-entity attribute values plus repeatable event data. It shares
// a lifecycle boundary with Submission only at read time.
type TrackerSubmission struct {
	ID         string            `json:"id" bson:"_id,omitempty"`
	UID        string            `json:"uid" bson:"uid"`
	SurveyID   string            `json:"surveyId" bson:"surveyId"`
	LocationID string            `json:"locationId,omitempty" bson:"locationId,omitempty"`
	Attributes map[string]string `json:"attributes" bson:"attributes"`
	Events     []TrackerEvent    `json:"events" bson:"events"`
	CreatedAt  time.Time         `json:"created" bson:"createdAt"`
}

// TrackerEvent is one repeatable-event occurrence in a tracker submission
type TrackerEvent struct {
	ProgramStageID string            `json:"programStageId" bson:"programStageId"`
	EventDate      time.Time         `json:"eventDate" bson:"eventDate"`
	DataValues     map[string]string `json:"dataValues" bson:"dataValues"`
}

// SubmissionKind tags rows in the unified read view
type SubmissionKind string

const (
	SubmissionKindRegular SubmissionKind = "regular"
	SubmissionKindTracker SubmissionKind = "tracker"
)

// SubmissionRow is the display shape that unifies regular and tracker
// submissions for listing.
type SubmissionRow struct {
	UID         string         `json:"uid"`
	SurveyID    string         `json:"surveyId"`
	Kind        SubmissionKind `json:"kind"`
	LocationID  string         `json:"locationId,omitempty"`
	AnswerCount int            `json:"answerCount"`
	CreatedAt   time.Time      `json:"created"`
}
