package handler

import (
	"encoding/json"
	"net/http"

	"healthsurveys/internal/model"
	"healthsurveys/internal/repository"

	"github.com/gorilla/mux"
)

// InstanceHandler manages configured DHIS2 instances
type InstanceHandler struct {
	instanceRepo repository.InstanceRepo
}

// NewInstanceHandler creates a new instance handler
func NewInstanceHandler(instanceRepo repository.InstanceRepo) *InstanceHandler {
	return &InstanceHandler{instanceRepo: instanceRepo}
}

// SaveInstanceRequest carries instance details with a plaintext password
// that is encoded before storage.
type SaveInstanceRequest struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	BaseURL  string `json:"baseUrl"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Create handles POST /v1/instances
func (h *InstanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SaveInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Key == "" || req.BaseURL == "" {
		writeError(w, http.StatusBadRequest, "key and baseUrl are required")
		return
	}

	inst := &model.DHIS2Instance{
		Key:      req.Key,
		Name:     req.Name,
		BaseURL:  req.BaseURL,
		Username: req.Username,
	}
	inst.SetPassword(req.Password)

	if err := h.instanceRepo.Create(r.Context(), inst); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

// List handles GET /v1/instances
func (h *InstanceHandler) List(w http.ResponseWriter, r *http.Request) {
	instances, err := h.instanceRepo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, instances)
}

// Update handles PUT /v1/instances/{instanceKey}
func (h *InstanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["instanceKey"]

	existing, err := h.instanceRepo.GetByKey(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}

	var req SaveInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing.Name = req.Name
	existing.BaseURL = req.BaseURL
	existing.Username = req.Username
	if req.Password != "" {
		existing.SetPassword(req.Password)
	}

	if err := h.instanceRepo.Update(r.Context(), existing); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

// Delete handles DELETE /v1/instances/{instanceKey}
func (h *InstanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.instanceRepo.Delete(r.Context(), mux.Vars(r)["instanceKey"]); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
