package handler

import (
	"encoding/json"
	"net/http"

	"healthsurveys/internal/model"
	"healthsurveys/internal/service"

	"github.com/gorilla/mux"
)

// SubmissionHandler exposes the submission admin endpoints
type SubmissionHandler struct {
	submissionSvc *service.SubmissionService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionSvc *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionSvc: submissionSvc}
}

// List handles GET /v1/surveys/{surveyId}/submissions
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.submissionSvc.List(r.Context(), mux.Vars(r)["surveyId"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Count handles GET /v1/surveys/{surveyId}/submissions/count
func (h *SubmissionHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.submissionSvc.CountBySurvey(r.Context(), mux.Vars(r)["surveyId"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// CreateTracker handles POST /v1/surveys/{surveyId}/tracker-submissions
func (h *SubmissionHandler) CreateTracker(w http.ResponseWriter, r *http.Request) {
	var sub model.TrackerSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub.SurveyID = mux.Vars(r)["surveyId"]
	if len(sub.Attributes) == 0 && len(sub.Events) == 0 {
		writeError(w, http.StatusBadRequest, "empty tracker payload")
		return
	}

	if err := h.submissionSvc.CreateTracker(r.Context(), &sub); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"uid": sub.UID})
}

// Get handles GET /v1/submissions/{uid}
func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	submission, err := h.submissionSvc.Get(r.Context(), mux.Vars(r)["uid"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if submission == nil {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	writeJSON(w, http.StatusOK, submission)
}

// Delete handles DELETE /v1/submissions/{uid}
func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.submissionSvc.Delete(r.Context(), mux.Vars(r)["uid"]); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
