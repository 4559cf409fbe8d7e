package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"healthsurveys/internal/service"

	"github.com/gorilla/mux"
)

// FormHandler handles the public paginated form endpoints
type FormHandler struct {
	formSvc *service.FormService
}

// NewFormHandler creates a new form handler
func NewFormHandler(formSvc *service.FormService) *FormHandler {
	return &FormHandler{formSvc: formSvc}
}

// StartSession handles POST /v1/surveys/{surveyId}/sessions
func (h *FormHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	lang := r.URL.Query().Get("lang")

	page, err := h.formSvc.StartSession(r.Context(), surveyID, lang)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSurveyNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSurveyClosed):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, page)
}

// GetPage handles GET /v1/sessions/{sessionId}/page
func (h *FormHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.formSvc.GetPage(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// SaveAnswersRequest carries partial answers keyed by question ID
type SaveAnswersRequest struct {
	Answers map[string][]string `json:"answers"`
}

// SaveAnswers handles PUT /v1/sessions/{sessionId}/answers
func (h *FormHandler) SaveAnswers(w http.ResponseWriter, r *http.Request) {
	var req SaveAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.formSvc.SaveAnswers(r.Context(), mux.Vars(r)["sessionId"], req.Answers); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectFacilityRequest commits a facility pick into the session
type SelectFacilityRequest struct {
	LocationID string `json:"locationId"`
}

// SelectFacility handles PUT /v1/sessions/{sessionId}/facility
func (h *FormHandler) SelectFacility(w http.ResponseWriter, r *http.Request) {
	var req SelectFacilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.formSvc.SelectFacility(r.Context(), mux.Vars(r)["sessionId"], req.LocationID); err != nil {
		switch {
		case errors.Is(err, service.ErrPickerDisabled):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrLocationNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeSessionError(w, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Next handles POST /v1/sessions/{sessionId}/next. A validation failure
// returns 200 with the unchanged page and the validation view filled in.
func (h *FormHandler) Next(w http.ResponseWriter, r *http.Request) {
	page, err := h.formSvc.Next(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Back handles POST /v1/sessions/{sessionId}/back
func (h *FormHandler) Back(w http.ResponseWriter, r *http.Request) {
	page, err := h.formSvc.Back(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Submit handles POST /v1/sessions/{sessionId}/submit
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	submission, validation, err := h.formSvc.Submit(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if validation != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"validation": validation})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"uid": submission.UID})
}

func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
