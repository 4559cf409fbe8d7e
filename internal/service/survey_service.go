package service

import (
	"context"
	"errors"
	"fmt"

	"healthsurveys/internal/model"
	"healthsurveys/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrSurveyNotFound   = errors.New("survey not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrQuestionLocked   = errors.New("question is referenced by submissions and cannot be edited")
)

// SurveyService handles survey and question-bank CRUD plus the ordered
// question links between them.
type SurveyService struct {
	surveys     repository.SurveyRepo
	questions   repository.QuestionRepo
	optionSets  repository.OptionSetRepo
	submissions repository.SubmissionRepo
}

// NewSurveyService creates a new survey service
func NewSurveyService(
	surveys repository.SurveyRepo,
	questions repository.QuestionRepo,
	optionSets repository.OptionSetRepo,
	submissions repository.SubmissionRepo,
) *SurveyService {
	return &SurveyService{
		surveys:     surveys,
		questions:   questions,
		optionSets:  optionSets,
		submissions: submissions,
	}
}

// CreateSurvey stores a new survey and its ordered question list.
func (s *SurveyService) CreateSurvey(ctx context.Context, survey *model.Survey, questionIDs []string) error {
	if survey.ID == "" {
		survey.ID = uuid.New().String()
	}
	if survey.Type == "" {
		survey.Type = model.SurveyTypeLocal
	}
	if err := s.surveys.Create(ctx, survey); err != nil {
		return fmt.Errorf("failed to create survey: %w", err)
	}
	if len(questionIDs) > 0 {
		if err := s.surveys.SetQuestions(ctx, survey.ID, questionIDs); err != nil {
			return fmt.Errorf("failed to link questions: %w", err)
		}
	}
	return nil
}

// GetSurvey returns a survey or nil.
func (s *SurveyService) GetSurvey(ctx context.Context, id string) (*model.Survey, error) {
	return s.surveys.GetByID(ctx, id)
}

// ListSurveys returns all surveys, newest first.
func (s *SurveyService) ListSurveys(ctx context.Context) ([]*model.Survey, error) {
	return s.surveys.List(ctx)
}

// UpdateSurvey replaces survey metadata and, when questionIDs is
// non-nil, the ordered question list. Positions are renumbered
// contiguously from 1 in the given order.
func (s *SurveyService) UpdateSurvey(ctx context.Context, survey *model.Survey, questionIDs []string) error {
	existing, err := s.surveys.GetByID(ctx, survey.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrSurveyNotFound
	}
	survey.CreatedAt = existing.CreatedAt
	if err := s.surveys.Update(ctx, survey); err != nil {
		return fmt.Errorf("failed to update survey: %w", err)
	}
	if questionIDs != nil {
		if err := s.surveys.SetQuestions(ctx, survey.ID, questionIDs); err != nil {
			return fmt.Errorf("failed to relink questions: %w", err)
		}
	}
	return nil
}

// DeleteSurvey removes a survey and its question links.
func (s *SurveyService) DeleteSurvey(ctx context.Context, id string) error {
	return s.surveys.Delete(ctx, id)
}

// OrderedQuestions loads a survey's questions sorted by position.
func (s *SurveyService) OrderedQuestions(ctx context.Context, surveyID string) ([]model.Question, error) {
	links, err := s.surveys.GetQuestions(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.QuestionID)
	}
	byID, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	questions := make([]model.Question, 0, len(links))
	for _, l := range links {
		if q, ok := byID[l.QuestionID]; ok {
			questions = append(questions, *q)
		}
	}
	return questions, nil
}

// CreateQuestion adds a question to the bank.
func (s *SurveyService) CreateQuestion(ctx context.Context, q *model.Question) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return s.questions.Create(ctx, q)
}

// UpdateQuestion edits a bank question. Questions answered by any
// submission are immutable.
func (s *SurveyService) UpdateQuestion(ctx context.Context, q *model.Question) error {
	existing, err := s.questions.GetByID(ctx, q.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrQuestionNotFound
	}
	locked, err := s.submissions.ExistsForQuestion(ctx, q.ID)
	if err != nil {
		return fmt.Errorf("failed to check question references: %w", err)
	}
	if locked {
		return ErrQuestionLocked
	}
	q.CreatedAt = existing.CreatedAt
	return s.questions.Update(ctx, q)
}

// DeleteQuestion removes a bank question unless submissions reference it.
func (s *SurveyService) DeleteQuestion(ctx context.Context, id string) error {
	locked, err := s.submissions.ExistsForQuestion(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check question references: %w", err)
	}
	if locked {
		return ErrQuestionLocked
	}
	return s.questions.Delete(ctx, id)
}

// ListQuestions returns the whole question bank.
func (s *SurveyService) ListQuestions(ctx context.Context) ([]*model.Question, error) {
	return s.questions.List(ctx)
}

// OptionSets loads the option sets referenced by the given questions.
func (s *SurveyService) OptionSets(ctx context.Context, questions []model.Question) (map[string]*model.OptionSet, error) {
	var ids []string
	seen := make(map[string]bool)
	for i := range questions {
		id := questions[i].OptionSetID
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return s.optionSets.GetByIDs(ctx, ids)
}

// CreateOptionSet adds an option set to the bank.
func (s *SurveyService) CreateOptionSet(ctx context.Context, set *model.OptionSet) error {
	if set.ID == "" {
		set.ID = uuid.New().String()
	}
	return s.optionSets.Create(ctx, set)
}

// ListOptionSets returns all option sets.
func (s *SurveyService) ListOptionSets(ctx context.Context) ([]*model.OptionSet, error) {
	return s.optionSets.List(ctx)
}
