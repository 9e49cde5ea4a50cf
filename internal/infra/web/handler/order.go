package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skyops/skycourier/internal/application/port/outbound"
	"github.com/skyops/skycourier/internal/application/usecase/orders"
	"github.com/skyops/skycourier/internal/domain/entity"
)

type Order struct {
	CreateOrderUseCase orders.CreateUseCase
	Orders             outbound.OrderRepository
}

func NewOrderHandler(uc orders.CreateUseCase, repo outbound.OrderRepository) *Order {
	return &Order{
		CreateOrderUseCase: uc,
		Orders:             repo,
	}
}

func (h *Order) Create(w http.ResponseWriter, r *http.Request) {
	var dto orders.CreateInput

	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	output, err := h.CreateOrderUseCase.Execute(r.Context(), dto)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			http.Error(w, "store or user not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, output)
}

func (h *Order) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.FindByID(r.Context(), chi.URLParam(r, "order_id"))
	if errors.Is(err, entity.ErrNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, orderView(order))
}

func (h *Order) List(w http.ResponseWriter, r *http.Request) {
	var status entity.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := entity.ParseOrderStatus(s)
		if err != nil {
			http.Error(w, "unknown status filter", http.StatusBadRequest)
			return
		}
		status = parsed
	}

	list, err := h.Orders.List(r.Context(), status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]map[string]any, len(list))
	for i := range list {
		views[i] = orderView(&list[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Order) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Orders.Delete(r.Context(), chi.URLParam(r, "order_id"))
	if errors.Is(err, entity.ErrNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func orderView(o *entity.Order) map[string]any {
	view := map[string]any{
		"id":         o.ID,
		"store_id":   o.StoreID,
		"user_id":    o.UserID,
		"status":     string(o.Status),
		"version":    o.Version,
		"created_at": o.CreatedAt,
	}
	if o.AssignedDrone != "" {
		view["assigned_drone"] = o.AssignedDrone
	}
	return view
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
