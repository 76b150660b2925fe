package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/classpathio/order-service/internal/circuitbreaker"
	"github.com/classpathio/order-service/pkg/models"
)

// ErrEventNotPublished marks an order that was saved but whose accepted
// event never reached the topic. There is no outbox and no retry; callers
// decide whether to treat this as degraded success.
var ErrEventNotPublished = errors.New("order accepted event not published")

// fallbackOrderCount stands in for the inventory response while the
// inventory call is disabled.
const fallbackOrderCount = 1000

type Repository interface {
	Save(ctx context.Context, order *models.Order) error
	FindAll(ctx context.Context) ([]models.Order, error)
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	DeleteByID(ctx context.Context, id int64) error
}

type Publisher interface {
	Publish(orderID int64, payload interface{}) error
}

type InventoryClient interface {
	UpdateInventory(ctx context.Context) (int64, error)
}

// Service orchestrates persistence, the (optional) inventory update and
// event publication for the order aggregate.
type Service struct {
	repo             Repository
	publisher        Publisher
	inventory        InventoryClient
	breaker          *circuitbreaker.CircuitBreaker
	inventoryEnabled bool
	logger           *logrus.Logger
}

func NewService(repo Repository, publisher Publisher, inventory InventoryClient,
	breaker *circuitbreaker.CircuitBreaker, inventoryEnabled bool, logger *logrus.Logger) *Service {
	return &Service{
		repo:             repo,
		publisher:        publisher,
		inventory:        inventory,
		breaker:          breaker,
		inventoryEnabled: inventoryEnabled,
		logger:           logger,
	}
}

// Create saves the order with its line items, updates inventory when
// enabled, then publishes the accepted event. A publish failure does not
// roll anything back; the saved order is kept and the failure is returned
// as ErrEventNotPublished.
func (s *Service) Create(ctx context.Context, order *models.Order) error {
	if err := s.repo.Save(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	orderCount := int64(fallbackOrderCount)
	if s.inventoryEnabled && s.inventory != nil {
		err := s.breaker.Execute(func() error {
			count, err := s.inventory.UpdateInventory(ctx)
			if err == nil {
				orderCount = count
			}
			return err
		})
		if err != nil {
			// The order stands regardless of the inventory outcome.
			s.logger.WithError(err).WithField("order_id", order.ID).
				Error("Inventory update failed")
		}
	}
	s.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"order_count": orderCount,
	}).Info("Inventory state after order")

	event := models.OrderEvent{
		Order:     order,
		Status:    models.StatusOrderAccepted,
		Timestamp: time.Now(),
	}
	if err := s.publisher.Publish(order.ID, event); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).
			Error("Failed to publish order accepted event")
		return fmt.Errorf("%w: %v", ErrEventNotPublished, err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"total_amount": order.Price,
		"items_count":  len(order.LineItems),
	}).Info("Order created successfully")

	return nil
}

func (s *Service) List(ctx context.Context) ([]models.Order, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Order, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteByID(ctx, id)
}
