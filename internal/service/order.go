// Package service implements the platform's use cases on top of the store,
// the lifecycle authority, and the pricing calculator.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/lifecycle"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/pricing"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/store"
)

type OrderService struct {
	store     store.Store
	authority *lifecycle.Authority
	calc      *pricing.Calculator
	now       func() time.Time
}

func NewOrderService(st store.Store, authority *lifecycle.Authority, calc *pricing.Calculator) *OrderService {
	return &OrderService{
		store:     st,
		authority: authority,
		calc:      calc,
		now:       time.Now,
	}
}

// ItemInput is one requested line. UnitPrice is the base price before any
// rush surcharge; intake folds the surcharge in before snapshotting.
type ItemInput struct {
	Kind            model.ItemKind     `json:"kind"`
	ProductID       string             `json:"product_id,omitempty"`
	Name            string             `json:"name"`
	UnitPrice       int64              `json:"unit_price"`
	Quantity        int                `json:"quantity"`
	Rush            bool               `json:"rush,omitempty"`
	Description     string             `json:"description,omitempty"`
	Measurements    map[string]string  `json:"measurements,omitempty"`
	ReferenceImages []string           `json:"reference_images,omitempty"`
	FabricSource    model.FabricSource `json:"fabric_source,omitempty"`
}

type CreateOrderInput struct {
	Contact  model.ContactSnapshot    `json:"contact"`
	Items    []ItemInput              `json:"items"`
	Discount int64                    `json:"discount,omitempty"`
	Payment  model.PaymentDeclaration `json:"payment"`
}

// Create prices the request, validates it, and persists the order together
// with its creation event. The order starts in pending-payment; nothing is
// queued for production until staff verify the money.
func (s *OrderService) Create(ctx context.Context, customerID string, in CreateOrderInput) (*model.Order, error) {
	items := make([]model.OrderItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = model.OrderItem{
			Kind:            it.Kind,
			ProductID:       it.ProductID,
			Name:            it.Name,
			UnitPrice:       s.calc.UnitPrice(it.UnitPrice, it.Rush),
			Quantity:        it.Quantity,
			Rush:            it.Rush,
			Description:     it.Description,
			Measurements:    it.Measurements,
			ReferenceImages: it.ReferenceImages,
			FabricSource:    it.FabricSource,
		}
	}

	breakdown, err := s.calc.Compute(items, in.Contact.Region, in.Discount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o, err := model.NewOrder(model.NewOrderParams{
		CustomerID:          customerID,
		Customer:            in.Contact,
		Items:               items,
		Payment:             in.Payment,
		Pricing:             breakdown,
		EstimatedCompletion: s.calc.EstimateCompletion(items, now),
		Now:                 now,
	})
	if err != nil {
		return nil, err
	}

	evt := model.NewOrderEvent(model.EventOrderCreated, o, "", o.Status,
		model.Actor{ID: customerID, Role: model.RoleCustomer}, now).
		With("total", o.Pricing.Total).
		With("method", o.Payment.Method)
	if err := s.store.CreateOrder(ctx, o, evt); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	slog.Info("order created",
		"number", o.OrderNumber,
		"items", len(o.Items),
		"total", o.Pricing.Total,
		"method", o.Payment.Method,
	)
	return o, nil
}

// GetFor loads an order for the acting party. Customers only ever see their
// own orders; a foreign id answers not-found rather than confirming it exists.
func (s *OrderService) GetFor(ctx context.Context, actor model.Actor, id string) (*model.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleCustomer && o.CustomerID != actor.ID {
		return nil, model.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) ListByCustomer(ctx context.Context, customerID string) ([]*model.Order, error) {
	return s.store.ListOrdersByCustomer(ctx, customerID)
}

func (s *OrderService) ListByStatus(ctx context.Context, st model.Status) ([]*model.Order, error) {
	if !st.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidStatus, st)
	}
	return s.store.ListOrdersByStatus(ctx, st)
}

// Cancel routes through the authority, which applies the role and
// production-lock rules.
func (s *OrderService) Cancel(ctx context.Context, orderID string, actor model.Actor, note string) (*model.Order, error) {
	return s.authority.Transition(ctx, orderID, model.StatusCancelled, actor, note)
}

// Transition is the staff path for moving an order along the lifecycle.
func (s *OrderService) Transition(ctx context.Context, orderID string, target model.Status, actor model.Actor, note string) (*model.Order, error) {
	return s.authority.Transition(ctx, orderID, target, actor, note)
}
