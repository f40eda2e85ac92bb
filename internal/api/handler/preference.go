package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aqmonitor/aqmonitor/internal/api/models"
	"github.com/aqmonitor/aqmonitor/internal/api/response"
	"github.com/aqmonitor/aqmonitor/internal/preference"
)

// PreferenceHandler handles preference endpoints.
type PreferenceHandler struct {
	service *preference.Service
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(service *preference.Service) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

// CreatePreference handles POST /api/preferences.
func (h *PreferenceHandler) CreatePreference(w http.ResponseWriter, r *http.Request) {
	var input *models.PreferenceCreateRequest
	if err := decodeBody(r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input == nil {
		response.BadRequest(w, r, "no data provided", nil)
		return
	}

	p, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, r, "/api/preferences/"+strconv.FormatInt(p.ID, 10), p)
}

// GetPreference handles GET /api/preferences/{id}.
func (h *PreferenceHandler) GetPreference(w http.ResponseWriter, r *http.Request) {
	id, ok := preferenceID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// UpdatePreference handles PUT /api/preferences/{id}.
func (h *PreferenceHandler) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	id, ok := preferenceID(w, r)
	if !ok {
		return
	}

	var input *models.PreferenceUpdateRequest
	if err := decodeBody(r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input == nil {
		response.BadRequest(w, r, "no data provided", nil)
		return
	}

	p, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// DeletePreference handles DELETE /api/preferences/{id}.
func (h *PreferenceHandler) DeletePreference(w http.ResponseWriter, r *http.Request) {
	id, ok := preferenceID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Message(w, r, http.StatusOK, "Preferences deleted")
}

func (h *PreferenceHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *preference.ValidationError
	switch {
	case errors.As(err, &verr):
		response.BadRequest(w, r, verr.Error(), verr.Errors)
	case errors.Is(err, preference.ErrPreferenceNotFound):
		response.NotFound(w, r, "preferences not found")
	default:
		response.InternalError(w, r, err.Error())
	}
}

// preferenceID parses the {id} segment. Ids are positive integers; anything
// else cannot name a stored preference.
func preferenceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(pathParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.NotFound(w, r, "preferences not found")
		return 0, false
	}
	return id, true
}
