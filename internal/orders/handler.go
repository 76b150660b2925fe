package orders

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/classpathio/order-service/internal/storage"
	"github.com/classpathio/order-service/pkg/models"
)

type Handler struct {
	service *Service
	logger  *logrus.Logger
}

func NewHandler(service *Service, logger *logrus.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders")
		h.respondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	h.logger.WithField("count", len(orders)).Info("Retrieved orders")
	h.respondWithJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	order, err := h.service.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("order_id", id).Error("Failed to get order")
		h.respondWithError(w, http.StatusInternalServerError, "Failed to get order")
		return
	}

	h.respondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var order models.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		h.logger.WithError(err).Error("Failed to decode order request")
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Identifiers are always server-assigned.
	order.ID = 0
	for i := range order.LineItems {
		order.LineItems[i].ID = 0
	}

	err := h.service.Create(r.Context(), &order)
	if err != nil && !errors.Is(err, ErrEventNotPublished) {
		h.logger.WithError(err).Error("Failed to create order")
		h.respondWithError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}
	if errors.Is(err, ErrEventNotPublished) {
		// Degraded success: the order is saved, downstream systems were
		// not notified and there is no record to replay from.
		h.logger.WithError(err).WithField("order_id", order.ID).
			Warn("Order created but event not published")
	}

	h.respondWithJSON(w, http.StatusCreated, order)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.WithError(err).WithField("order_id", id).Error("Failed to delete order")
		h.respondWithError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func orderID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
