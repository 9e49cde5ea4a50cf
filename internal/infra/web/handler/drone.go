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

type Drone struct {
	Drones outbound.DroneRepository
}

func NewDroneHandler(repo outbound.DroneRepository) *Drone {
	return &Drone{Drones: repo}
}

type createDroneInput struct {
	Location string `json:"location"`
}

// Create onboards a drone into the active pool. Fleet vehicles start at the
// depot origin unless a location is supplied.
func (h *Drone) Create(w http.ResponseWriter, r *http.Request) {
	var dto createDroneInput
	if r.Body != nil {
		// An empty body means depot defaults.
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	location := entity.GeoPoint{}
	if dto.Location != "" {
		parsed, err := entity.ParseGeoPoint(dto.Location)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		location = parsed
	}

	drone, err := entity.NewDrone(uuid.NewString(), location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Drones.Create(r.Context(), drone); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, droneView(drone))
}

func (h *Drone) Get(w http.ResponseWriter, r *http.Request) {
	drone, err := h.Drones.FindByID(r.Context(), chi.URLParam(r, "drone_id"))
	if errors.Is(err, entity.ErrNotFound) {
		http.Error(w, "drone not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, droneView(drone))
}

func (h *Drone) List(w http.ResponseWriter, r *http.Request) {
	var status entity.DroneStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := entity.ParseDroneStatus(s)
		if err != nil {
			http.Error(w, "unknown status filter", http.StatusBadRequest)
			return
		}
		status = parsed
	}

	list, err := h.Drones.List(r.Context(), status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]map[string]any, len(list))
	for i := range list {
		views[i] = droneView(&list[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Drone) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Drones.Delete(r.Context(), chi.URLParam(r, "drone_id"))
	if errors.Is(err, entity.ErrNotFound) {
		http.Error(w, "drone not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func droneView(d *entity.Drone) map[string]any {
	return map[string]any{
		"id":       d.ID,
		"status":   string(d.Status),
		"location": d.Location.String(),
	}
}
