package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"healthsurveys/internal/model"
	"healthsurveys/internal/service"

	"github.com/gorilla/mux"
)

// SyncHandler starts and inspects metadata import jobs
type SyncHandler struct {
	syncSvc *service.SyncService
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncSvc *service.SyncService) *SyncHandler {
	return &SyncHandler{syncSvc: syncSvc}
}

// StartImportRequest names the instance and metadata target to import
type StartImportRequest struct {
	InstanceKey string           `json:"instanceKey"`
	Domain      model.SyncDomain `json:"domain"`
	TargetID    string           `json:"targetId"`
}

// StartImport handles POST /v1/sync/imports
func (h *SyncHandler) StartImport(w http.ResponseWriter, r *http.Request) {
	var req StartImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.InstanceKey == "" || req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "instanceKey and targetId are required")
		return
	}

	job, err := h.syncSvc.StartImport(r.Context(), req.InstanceKey, req.Domain, req.TargetID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInstanceNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrUnknownDomain):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// Status handles GET /v1/sync/imports/{jobId}
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	job, err := h.syncSvc.Status(r.Context(), mux.Vars(r)["jobId"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "sync job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}
