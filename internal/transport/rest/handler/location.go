package handler

import (
	"errors"
	"net/http"
	"strconv"

	"healthsurveys/internal/service"

	"github.com/gorilla/mux"
)

// LocationHandler serves the facility hierarchy endpoints
type LocationHandler struct {
	locationSvc *service.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationSvc *service.LocationService) *LocationHandler {
	return &LocationHandler{locationSvc: locationSvc}
}

// List handles GET /v1/locations?instance_key=&hierarchy_level=
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	instanceKey := r.URL.Query().Get("instance_key")
	if instanceKey == "" {
		writeError(w, http.StatusBadRequest, "instance_key is required")
		return
	}
	level, err := strconv.Atoi(r.URL.Query().Get("hierarchy_level"))
	if err != nil || level < 1 {
		writeError(w, http.StatusBadRequest, "hierarchy_level must be a positive integer")
		return
	}

	locations, err := h.locationSvc.LoadCandidates(r.Context(), instanceKey, level)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

// Refresh handles POST /v1/instances/{instanceKey}/locations/refresh
func (h *LocationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.URL.Query().Get("hierarchy_level"))
	if err != nil || level < 1 {
		writeError(w, http.StatusBadRequest, "hierarchy_level must be a positive integer")
		return
	}

	count, err := h.locationSvc.Refresh(r.Context(), mux.Vars(r)["instanceKey"], level)
	if err != nil {
		if errors.Is(err, service.ErrInstanceNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// Path handles GET /v1/locations/{locationId}/path
func (h *LocationHandler) Path(w http.ResponseWriter, r *http.Request) {
	path, err := h.locationSvc.Path(r.Context(), mux.Vars(r)["locationId"])
	if err != nil {
		if errors.Is(err, service.ErrLocationNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}
