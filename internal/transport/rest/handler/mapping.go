package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"healthsurveys/internal/model"
	"healthsurveys/internal/service"

	"github.com/gorilla/mux"
)

// MappingHandler exposes the DHIS2 mapping admin endpoints
type MappingHandler struct {
	mappingSvc *service.MappingService
}

// NewMappingHandler creates a new mapping handler
func NewMappingHandler(mappingSvc *service.MappingService) *MappingHandler {
	return &MappingHandler{mappingSvc: mappingSvc}
}

// ListPrograms handles GET /v1/instances/{instanceKey}/programs
func (h *MappingHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.mappingSvc.ListPrograms(r.Context(), mux.Vars(r)["instanceKey"])
	if err != nil {
		writeMappingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

// ListDataSets handles GET /v1/instances/{instanceKey}/datasets
func (h *MappingHandler) ListDataSets(w http.ResponseWriter, r *http.Request) {
	dataSets, err := h.mappingSvc.ListDataSets(r.Context(), mux.Vars(r)["instanceKey"])
	if err != nil {
		writeMappingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataSets)
}

// ElementsResponse pairs the remote listing with the mappings that
// already exist for those elements.
type ElementsResponse struct {
	Elements  []model.RemoteElement   `json:"elements"`
	Conflicts []model.ElementConflict `json:"conflicts,omitempty"`
	Existing  []model.ExistingMapping `json:"existing"`
}

// ListElements handles GET /v1/instances/{instanceKey}/elements?domain=&target_id=
func (h *MappingHandler) ListElements(w http.ResponseWriter, r *http.Request) {
	instanceKey := mux.Vars(r)["instanceKey"]
	domain := model.SyncDomain(r.URL.Query().Get("domain"))
	targetID := r.URL.Query().Get("target_id")
	if targetID == "" {
		writeError(w, http.StatusBadRequest, "target_id is required")
		return
	}

	listing, err := h.mappingSvc.ListRemoteElements(r.Context(), instanceKey, domain, targetID)
	if err != nil {
		writeMappingError(w, err)
		return
	}

	existing, err := h.mappingSvc.FindExistingMappings(r.Context(), listing.Elements)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ElementsResponse{
		Elements:  listing.Elements,
		Conflicts: listing.Conflicts,
		Existing:  existing,
	})
}

// SaveMappingRequest binds one question to a remote element. An empty
// element id clears the binding.
type SaveMappingRequest struct {
	ElementID   string `json:"elementId"`
	OptionSetID string `json:"optionSetId"`
}

// SaveMapping handles PUT /v1/questions/{questionId}/mapping
func (h *MappingHandler) SaveMapping(w http.ResponseWriter, r *http.Request) {
	var req SaveMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	questionID := mux.Vars(r)["questionId"]
	if err := h.mappingSvc.SaveSingleMapping(r.Context(), questionID, req.ElementID, req.OptionSetID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkMappingRequest carries every binding for a saved page at once
type BulkMappingRequest struct {
	Bindings map[string]model.MappingBinding `json:"bindings"`
}

// SaveBulkMapping handles PUT /v1/mappings
func (h *MappingHandler) SaveBulkMapping(w http.ResponseWriter, r *http.Request) {
	var req BulkMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Bindings) == 0 {
		writeError(w, http.StatusBadRequest, "bindings must not be empty")
		return
	}

	if err := h.mappingSvc.SaveBulkMapping(r.Context(), req.Bindings); err != nil {
		// Surface the storage error verbatim; the transaction has
		// already rolled back and no partial state remains.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OptionTranslationsRequest replaces the remote value translations of
// one option set.
type OptionTranslationsRequest struct {
	Pairs []model.OptionSetMapping `json:"pairs"`
}

// SaveOptionTranslations handles PUT /v1/optionsets/{optionSetId}/translations
func (h *MappingHandler) SaveOptionTranslations(w http.ResponseWriter, r *http.Request) {
	var req OptionTranslationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	optionSetID := mux.Vars(r)["optionSetId"]
	if err := h.mappingSvc.SaveOptionSetTranslations(r.Context(), optionSetID, req.Pairs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeMappingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInstanceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnknownDomain):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
