package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthsurveys/internal/cache"
	"healthsurveys/internal/form"
	"healthsurveys/internal/model"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("form session not found or expired")
	ErrSurveyClosed    = errors.New("survey is not accepting submissions")
)

// PageResponse is what the form endpoints return: the session id, the
// page window rendered as widgets, control visibility and facility
// picker state.
type PageResponse struct {
	SessionID  string          `json:"sessionId"`
	SurveyID   string          `json:"surveyId"`
	Page       int             `json:"page"`
	PageCount  int             `json:"pageCount"`
	Widgets    []form.Widget   `json:"widgets"`
	ShowBack   bool            `json:"showBack"`
	ShowNext   bool            `json:"showNext"`
	ShowSubmit bool            `json:"showSubmit"`
	Facility   *FacilityView   `json:"facility,omitempty"`
	Validation *ValidationView `json:"validation,omitempty"`
}

// FacilityView is the picker state rendered to the client
type FacilityView struct {
	State        PickerState `json:"state"`
	Required     bool        `json:"required"`
	SelectedID   string      `json:"selectedId,omitempty"`
	SelectedPath string      `json:"selectedPath,omitempty"`
}

// ValidationView carries a failed validation back to the client
type ValidationView struct {
	Message         string   `json:"message"`
	QuestionIDs     []string `json:"questionIds"`
	FirstQuestionID string   `json:"firstQuestionId"`
}

// FormService drives the paginated survey form: session lifecycle,
// answer capture, page navigation gated by validation, and final
// submission.
type FormService struct {
	surveys     *SurveyService
	locations   *LocationService
	submissions *SubmissionService
	sessions    cache.SessionCache
}

// NewFormService creates a new form service
func NewFormService(
	surveys *SurveyService,
	locations *LocationService,
	submissions *SubmissionService,
	sessions cache.SessionCache,
) *FormService {
	return &FormService{
		surveys:     surveys,
		locations:   locations,
		submissions: submissions,
		sessions:    sessions,
	}
}

// StartSession opens a new form session for a survey and returns the
// first page.
func (s *FormService) StartSession(ctx context.Context, surveyID, lang string) (*PageResponse, error) {
	survey, err := s.surveys.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	if !survey.Open(time.Now()) {
		return nil, ErrSurveyClosed
	}

	session := &model.FormSession{
		ID:          uuid.New().String(),
		SurveyID:    surveyID,
		Lang:        lang,
		CurrentPage: 1,
		Answers:     map[string][]string{},
		CreatedAt:   time.Now(),
	}
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return s.renderPage(ctx, session, survey, nil)
}

// GetPage returns the current page of an existing session.
func (s *FormService) GetPage(ctx context.Context, sessionID string) (*PageResponse, error) {
	session, survey, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.renderPage(ctx, session, survey, nil)
}

// SaveAnswers merges the given answers into the session.
func (s *FormService) SaveAnswers(ctx context.Context, sessionID string, answers map[string][]string) error {
	session, _, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	for qid, values := range answers {
		session.Answers[qid] = values
	}
	return s.sessions.Set(ctx, session)
}

// SelectFacility commits a facility choice into the session.
func (s *FormService) SelectFacility(ctx context.Context, sessionID, locationID string) error {
	session, survey, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	picker := s.locations.NewPicker(ctx, survey.Location)
	if err := s.locations.Select(ctx, picker, locationID); err != nil {
		return err
	}
	session.FacilityID = picker.SelectedID
	session.FacilityPath = picker.SelectedPath
	return s.sessions.Set(ctx, session)
}

// Next validates the visible page and advances on success. A validation
// failure is returned in the page response, not as an error: the page
// does not change.
func (s *FormService) Next(ctx context.Context, sessionID string) (*PageResponse, error) {
	session, survey, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	paginator, err := s.paginator(ctx, session, survey)
	if err != nil {
		return nil, err
	}

	if err := paginator.Next(form.Answers(session.Answers)); err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			return s.renderPage(ctx, session, survey, verr)
		}
		return nil, err
	}

	session.CurrentPage = paginator.CurrentPage()
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, err
	}
	return s.renderPage(ctx, session, survey, nil)
}

// Back moves one page backward without validation.
func (s *FormService) Back(ctx context.Context, sessionID string) (*PageResponse, error) {
	session, survey, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CurrentPage > 1 {
		session.CurrentPage--
		if err := s.sessions.Set(ctx, session); err != nil {
			return nil, err
		}
	}
	return s.renderPage(ctx, session, survey, nil)
}

// Submit re-validates every required question across all pages plus the
// facility selection, creates the submission exactly once and deletes
// the session.
func (s *FormService) Submit(ctx context.Context, sessionID string) (*model.Submission, *ValidationView, error) {
	session, survey, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	paginator, err := s.paginator(ctx, session, survey)
	if err != nil {
		return nil, nil, err
	}

	picker := s.locations.NewPicker(ctx, survey.Location)
	picker.SelectedID = session.FacilityID
	facility := picker.FacilityState()

	if err := paginator.SubmitAll(form.Answers(session.Answers), facility); err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			return nil, &ValidationView{
				Message:         verr.Error(),
				QuestionIDs:     verr.QuestionIDs,
				FirstQuestionID: verr.FirstQuestionID,
			}, nil
		}
		if errors.Is(err, form.ErrFacilityRequired) {
			return nil, &ValidationView{Message: err.Error()}, nil
		}
		return nil, nil, err
	}

	submission, err := s.submissions.Create(ctx, survey, session)
	if err != nil {
		return nil, nil, err
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		// The submission is already stored; an expired-session delete
		// failure only risks a duplicate-UID retry, which the unique
		// index rejects.
		return submission, nil, nil
	}
	return submission, nil, nil
}

func (s *FormService) load(ctx context.Context, sessionID string) (*model.FormSession, *model.Survey, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}
	survey, err := s.surveys.GetSurvey(ctx, session.SurveyID)
	if err != nil {
		return nil, nil, err
	}
	if survey == nil {
		return nil, nil, ErrSurveyNotFound
	}
	return session, survey, nil
}

func (s *FormService) paginator(ctx context.Context, session *model.FormSession, survey *model.Survey) (*form.Paginator, error) {
	questions, err := s.surveys.OrderedQuestions(ctx, survey.ID)
	if err != nil {
		return nil, err
	}
	p := form.NewPaginator(questions, survey.PageSize)
	p.SetPage(session.CurrentPage)
	return p, nil
}

func (s *FormService) renderPage(ctx context.Context, session *model.FormSession, survey *model.Survey, verr *form.ValidationError) (*PageResponse, error) {
	paginator, err := s.paginator(ctx, session, survey)
	if err != nil {
		return nil, err
	}
	view := paginator.Current()

	optionSets, err := s.surveys.OptionSets(ctx, view.Questions)
	if err != nil {
		return nil, err
	}

	widgets := make([]form.Widget, 0, len(view.Questions))
	for i := range view.Questions {
		q := &view.Questions[i]
		widgets = append(widgets, form.ResolveWidget(q, optionSets[q.OptionSetID], session.Lang))
	}

	resp := &PageResponse{
		SessionID:  session.ID,
		SurveyID:   survey.ID,
		Page:       view.Number,
		PageCount:  paginator.PageCount(),
		Widgets:    widgets,
		ShowBack:   view.ShowBack,
		ShowNext:   view.ShowNext,
		ShowSubmit: view.ShowSubmit,
	}

	picker := s.locations.NewPicker(ctx, survey.Location)
	resp.Facility = &FacilityView{
		State:        picker.State,
		Required:     picker.Required,
		SelectedID:   session.FacilityID,
		SelectedPath: session.FacilityPath,
	}

	if verr != nil {
		resp.Validation = &ValidationView{
			Message:         verr.Error(),
			QuestionIDs:     verr.QuestionIDs,
			FirstQuestionID: verr.FirstQuestionID,
		}
	}
	return resp, nil
}
