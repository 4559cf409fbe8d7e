package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"healthsurveys/internal/model"
	"healthsurveys/internal/service"

	"github.com/gorilla/mux"
)

// SurveyHandler handles survey and question-bank admin endpoints
type SurveyHandler struct {
	surveySvc *service.SurveyService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveySvc: surveySvc}
}

// SaveSurveyRequest is the request body for creating or updating a survey
type SaveSurveyRequest struct {
	Survey      model.Survey `json:"survey"`
	QuestionIDs []string     `json:"questionIds"`
}

// Create handles POST /v1/surveys
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SaveSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.surveySvc.CreateSurvey(r.Context(), &req.Survey, req.QuestionIDs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"surveyId": req.Survey.ID})
}

// Update handles PUT /v1/surveys/{surveyId}
func (h *SurveyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req SaveSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Survey.ID = mux.Vars(r)["surveyId"]

	if err := h.surveySvc.UpdateSurvey(r.Context(), &req.Survey, req.QuestionIDs); err != nil {
		if errors.Is(err, service.ErrSurveyNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, req.Survey)
}

// Get handles GET /v1/surveys/{surveyId}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	survey, err := h.surveySvc.GetSurvey(r.Context(), surveyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if survey == nil {
		writeError(w, http.StatusNotFound, "survey not found")
		return
	}

	questions, err := h.surveySvc.OrderedQuestions(r.Context(), surveyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"survey":    survey,
		"questions": questions,
	})
}

// List handles GET /v1/surveys
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.surveySvc.ListSurveys(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"surveys": surveys})
}

// Delete handles DELETE /v1/surveys/{surveyId}
func (h *SurveyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.surveySvc.DeleteSurvey(r.Context(), mux.Vars(r)["surveyId"]); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateQuestion handles POST /v1/questions
func (h *SurveyHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var q model.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.surveySvc.CreateQuestion(r.Context(), &q); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, q)
}

// UpdateQuestion handles PUT /v1/questions/{questionId}
func (h *SurveyHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var q model.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q.ID = mux.Vars(r)["questionId"]

	if err := h.surveySvc.UpdateQuestion(r.Context(), &q); err != nil {
		switch {
		case errors.Is(err, service.ErrQuestionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrQuestionLocked):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// DeleteQuestion handles DELETE /v1/questions/{questionId}
func (h *SurveyHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.surveySvc.DeleteQuestion(r.Context(), mux.Vars(r)["questionId"]); err != nil {
		if errors.Is(err, service.ErrQuestionLocked) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListQuestions handles GET /v1/questions
func (h *SurveyHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.surveySvc.ListQuestions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

// CreateOptionSet handles POST /v1/optionsets
func (h *SurveyHandler) CreateOptionSet(w http.ResponseWriter, r *http.Request) {
	var set model.OptionSet
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.surveySvc.CreateOptionSet(r.Context(), &set); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, set)
}

// ListOptionSets handles GET /v1/optionsets
func (h *SurveyHandler) ListOptionSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.surveySvc.ListOptionSets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"optionSets": sets})
}
