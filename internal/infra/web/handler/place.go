package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/skyops/skycourier/internal/application/port/outbound"
	"github.com/skyops/skycourier/internal/domain/entity"
)

// Place serves the store and user reference entities.
type Place struct {
	Places outbound.PlaceRepository
}

func NewPlaceHandler(repo outbound.PlaceRepository) *Place {
	return &Place{Places: repo}
}

type createPlaceInput struct {
	Location string `json:"location"`
}

func (h *Place) CreateStore(w http.ResponseWriter, r *http.Request) {
	location, ok := h.decodeLocation(w, r)
	if !ok {
		return
	}

	store, err := entity.NewStore(uuid.NewString(), location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Places.CreateStore(r.Context(), store); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       store.ID,
		"location": store.Location.String(),
	})
}

func (h *Place) GetStore(w http.ResponseWriter, r *http.Request) {
	store, err := h.Places.FindStore(r.Context(), chi.URLParam(r, "store_id"))
	if errors.Is(err, entity.ErrNotFound) {
		http.Error(w, "store not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       store.ID,
		"location": store.Location.String(),
	})
}

func (h *Place) CreateUser(w http.ResponseWriter, r *http.Request) {
	location, ok := h.decodeLocation(w, r)
	if !ok {
		return
	}

	user, err := entity.NewUser(uuid.NewString(), location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Places.CreateUser(r.Context(), user); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       user.ID,
		"location": user.Location.String(),
	})
}

func (h *Place) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Places.FindUser(r.Context(), chi.URLParam(r, "user_id"))
	if errors.Is(err, entity.ErrNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       user.ID,
		"location": user.Location.String(),
	})
}

func (h *Place) decodeLocation(w http.ResponseWriter, r *http.Request) (entity.GeoPoint, bool) {
	var dto createPlaceInput
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return entity.GeoPoint{}, false
	}

	location, err := entity.ParseGeoPoint(dto.Location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return entity.GeoPoint{}, false
	}
	return location, true
}
