package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/classpathio/order-service/pkg/models"
)

func newTestRouter(repo Repository, pub Publisher) *mux.Router {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	handler := NewHandler(newTestService(repo, pub, nil, false), logger)

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/orders", handler.ListOrders).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/orders", handler.CreateOrder).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/orders/{id}", handler.GetOrder).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/orders/{id}", handler.DeleteOrder).Methods(http.MethodDelete)
	return router
}

func TestCreateOrderEndpoint(t *testing.T) {
	router := newTestRouter(newFakeRepo(), &fakePublisher{})

	body := `{"name":"Ada","email":"ada@x.com","date":"2024-01-01","lineItems":[{"name":"Widget","qty":2,"price":10.0}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body)
	}

	var created map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if id, _ := created["id"].(float64); id == 0 {
		t.Error("response order id missing or zero")
	}
	items, ok := created["lineItems"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected lineItems in response: %v", created["lineItems"])
	}
	item := items[0].(map[string]interface{})
	if id, _ := item["id"].(float64); id == 0 {
		t.Error("response line item id missing or zero")
	}
	if _, exists := item["order"]; exists {
		t.Error("line item carries a back-reference to the order")
	}
}

func TestCreateOrderIgnoresClientSuppliedIDs(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo, &fakePublisher{})

	body := `{"id":999,"name":"Ada","email":"ada@x.com","date":"2024-01-01","lineItems":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var created models.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == 999 {
		t.Error("client-supplied id was honored; ids must be server-assigned")
	}
}

func TestCreateOrderBadBody(t *testing.T) {
	router := newTestRouter(newFakeRepo(), &fakePublisher{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateOrderDegradedSuccessOnPublishFailure(t *testing.T) {
	router := newTestRouter(newFakeRepo(), &fakePublisher{publishErr: errors.New("broker down")})

	body := `{"name":"Ada","email":"ada@x.com","date":"2024-01-01","lineItems":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d (order saved, publish failed)", rec.Code, http.StatusCreated)
	}
}

func TestGetOrderEndpoint(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo, &fakePublisher{})

	order := testOrder()
	if err := repo.Save(context.Background(), order); err != nil {
		t.Fatalf("failed to seed repo: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got models.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Name != "Ada" {
		t.Errorf("got.Name = %q, want Ada", got.Name)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	router := newTestRouter(newFakeRepo(), &fakePublisher{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetOrderBadID(t *testing.T) {
	router := newTestRouter(newFakeRepo(), &fakePublisher{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDeleteOrderEndpoint(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo, &fakePublisher{})

	order := testOrder()
	if err := repo.Save(context.Background(), order); err != nil {
		t.Fatalf("failed to seed repo: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("delete response has body: %s", rec.Body)
	}

	if _, exists := repo.orders[1]; exists {
		t.Error("order still present after delete")
	}
}

func TestListOrdersEndpoint(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo, &fakePublisher{})

	for i := 0; i < 2; i++ {
		if err := repo.Save(context.Background(), testOrder()); err != nil {
			t.Fatalf("failed to seed repo: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got []models.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(orders) = %d, want 2", len(got))
	}
}
