package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/skyops/skycourier/internal/application/port/outbound"
	"github.com/skyops/skycourier/internal/domain/entity"
	otelhelper "github.com/skyops/skycourier/pkg/otel"
)

type CreateInput struct {
	StoreID string `json:"store_id"`
	UserID  string `json:"user_id"`
}

type CreateOutput struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

type CreateUseCase interface {
	Execute(ctx context.Context, input CreateInput) (CreateOutput, error)
}

// CreateUseCaseImpl places a new order: it validates the waypoint references,
// persists the order at version 1 and stages the order-created event in the
// outbox within the same transaction. The relay feeds the event to the
// matching inbox.
type CreateUseCaseImpl struct {
	Orders outbound.OrderRepository
	Places outbound.PlaceRepository
}

func NewCreateUseCase(orders outbound.OrderRepository, places outbound.PlaceRepository) *CreateUseCaseImpl {
	return &CreateUseCaseImpl{Orders: orders, Places: places}
}

func (uc *CreateUseCaseImpl) Execute(ctx context.Context, input CreateInput) (CreateOutput, error) {
	store, err := uc.Places.FindStore(ctx, input.StoreID)
	if err != nil {
		return CreateOutput{}, fmt.Errorf("store lookup: %w", err)
	}
	if _, err := uc.Places.FindUser(ctx, input.UserID); err != nil {
		return CreateOutput{}, fmt.Errorf("user lookup: %w", err)
	}

	order, err := entity.NewOrder(uuid.NewString(), input.StoreID, input.UserID)
	if err != nil {
		return CreateOutput{}, err
	}

	payload, err := json.Marshal(map[string]string{
		"UUID":          order.ID,
		"StoreID":       order.StoreID,
		"UserID":        order.UserID,
		"Version":       strconv.FormatInt(order.Version, 10),
		"StoreLocation": store.Location.String(),
	})
	if err != nil {
		return CreateOutput{}, err
	}

	traceCtx := otelhelper.ExtractContextToJSON(ctx)
	if err := uc.Orders.CreateWithEvent(ctx, order, payload, traceCtx); err != nil {
		return CreateOutput{}, fmt.Errorf("save order: %w", err)
	}

	return CreateOutput{
		ID:      order.ID,
		Status:  string(order.Status),
		Version: order.Version,
	}, nil
}
