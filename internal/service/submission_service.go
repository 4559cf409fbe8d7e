package service

import (
	"context"
	"fmt"
	"sort"

	"healthsurveys/internal/model"
	"healthsurveys/internal/repository"

	"github.com/google/uuid"
)

// SubmissionService stores completed survey responses and serves the
// unified read view over regular and tracker submissions.
type SubmissionService struct {
	submissions repository.SubmissionRepo
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(submissions repository.SubmissionRepo) *SubmissionService {
	return &SubmissionService{submissions: submissions}
}

// Create persists a completed form session as a submission. Callers
// validate before calling; this only shapes and stores.
func (s *SubmissionService) Create(ctx context.Context, survey *model.Survey, session *model.FormSession) (*model.Submission, error) {
	responses := make([]model.Response, 0, len(session.Answers))
	for qid, values := range session.Answers {
		if len(values) == 0 {
			continue
		}
		responses = append(responses, model.Response{QuestionID: qid, Values: values})
	}
	sort.Slice(responses, func(i, j int) bool {
		return responses[i].QuestionID < responses[j].QuestionID
	})

	submission := &model.Submission{
		ID:         uuid.New().String(),
		UID:        uuid.New().String(),
		SurveyID:   survey.ID,
		LocationID: session.FacilityID,
		Hierarchy:  session.FacilityPath,
		Responses:  responses,
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}
	return submission, nil
}

// CreateTracker persists a DHIS2 tracker payload submission.
func (s *SubmissionService) CreateTracker(ctx context.Context, sub *model.TrackerSubmission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.UID == "" {
		sub.UID = uuid.New().String()
	}
	if err := s.submissions.CreateTracker(ctx, sub); err != nil {
		return fmt.Errorf("failed to store tracker submission: %w", err)
	}
	return nil
}

// List returns the unified display rows for a survey: regular and
// tracker submissions merged, newest first. The two shapes stay in
// separate collections and meet only here.
func (s *SubmissionService) List(ctx context.Context, surveyID string) ([]model.SubmissionRow, error) {
	regular, err := s.submissions.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	tracker, err := s.submissions.ListTrackerBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	rows := make([]model.SubmissionRow, 0, len(regular)+len(tracker))
	for _, sub := range regular {
		rows = append(rows, model.SubmissionRow{
			UID:         sub.UID,
			SurveyID:    sub.SurveyID,
			Kind:        model.SubmissionKindRegular,
			LocationID:  sub.LocationID,
			AnswerCount: len(sub.Responses),
			CreatedAt:   sub.CreatedAt,
		})
	}
	for _, sub := range tracker {
		count := len(sub.Attributes)
		for _, ev := range sub.Events {
			count += len(ev.DataValues)
		}
		rows = append(rows, model.SubmissionRow{
			UID:         sub.UID,
			SurveyID:    sub.SurveyID,
			Kind:        model.SubmissionKindTracker,
			LocationID:  sub.LocationID,
			AnswerCount: count,
			CreatedAt:   sub.CreatedAt,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows, nil
}

// Get returns one submission by UID, or nil.
func (s *SubmissionService) Get(ctx context.Context, uid string) (*model.Submission, error) {
	return s.submissions.GetByUID(ctx, uid)
}

// Delete removes a submission (admin action; the only mutation allowed
// after creation).
func (s *SubmissionService) Delete(ctx context.Context, uid string) error {
	return s.submissions.Delete(ctx, uid)
}

// CountBySurvey returns the dashboard count of regular submissions.
func (s *SubmissionService) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	return s.submissions.CountBySurvey(ctx, surveyID)
}
