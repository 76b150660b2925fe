package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"

	"github.com/classpathio/order-service/pkg/models"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return NewRepository(db, logger), mock
}

func TestSaveAssignsIDs(t *testing.T) {
	repo, mock := newTestRepository(t)

	order := &models.Order{
		Name:  "Ada",
		Email: "ada@x.com",
		Price: 20.0,
		Date:  models.NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		LineItems: []models.LineItem{
			{Name: "Widget", Qty: 2, Price: 10.0},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(order.Name, order.Email, order.Price, order.Date).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectQuery(`INSERT INTO line_items`).
		WithArgs(int64(42), "Widget", 2, 10.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	if err := repo.Save(context.Background(), order); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	if order.ID != 42 {
		t.Errorf("order.ID = %d, want 42", order.ID)
	}
	if order.LineItems[0].ID != 7 {
		t.Errorf("line item ID = %d, want 7", order.LineItems[0].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveRollsBackOnLineItemFailure(t *testing.T) {
	repo, mock := newTestRepository(t)

	order := &models.Order{
		Name:  "Ada",
		Email: "ada@x.com",
		Date:  models.NewDate(time.Now()),
		LineItems: []models.LineItem{
			{Name: "Widget", Qty: 2, Price: 10.0},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`INSERT INTO line_items`).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	if err := repo.Save(context.Background(), order); err == nil {
		t.Fatal("Save() expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFindByID(t *testing.T) {
	repo, mock := newTestRepository(t)

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, name, email, price, order_date`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "price", "order_date"}).
			AddRow(int64(42), "Ada", "ada@x.com", 20.0, date))
	mock.ExpectQuery(`SELECT id, name, qty, price`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "qty", "price"}).
			AddRow(int64(7), "Widget", 2, 10.0))

	order, err := repo.FindByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("FindByID() returned error: %v", err)
	}

	if order.ID != 42 || order.Name != "Ada" {
		t.Errorf("unexpected order: %+v", order)
	}
	if len(order.LineItems) != 1 || order.LineItems[0].Name != "Widget" {
		t.Errorf("unexpected line items: %+v", order.LineItems)
	}
}

func TestFindByIDNotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT id, name, email, price, order_date`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "price", "order_date"}))

	_, err := repo.FindByID(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID() error = %v, want ErrNotFound", err)
	}
}

func TestFindAll(t *testing.T) {
	repo, mock := newTestRepository(t)

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, name, email, price, order_date`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "price", "order_date"}).
			AddRow(int64(1), "Ada", "ada@x.com", 20.0, date).
			AddRow(int64(2), "Grace", "grace@x.com", 30.0, date))
	mock.ExpectQuery(`SELECT id, name, qty, price`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "qty", "price"}).
			AddRow(int64(7), "Widget", 2, 10.0))
	mock.ExpectQuery(`SELECT id, name, qty, price`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "qty", "price"}))

	orders, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll() returned error: %v", err)
	}

	if len(orders) != 2 {
		t.Fatalf("len(orders) = %d, want 2", len(orders))
	}
	if len(orders[0].LineItems) != 1 {
		t.Errorf("first order line items = %d, want 1", len(orders[0].LineItems))
	}
	if len(orders[1].LineItems) != 0 {
		t.Errorf("second order line items = %d, want 0", len(orders[1].LineItems))
	}
}

func TestDeleteByIDIsNoOpSafe(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec(`DELETE FROM orders`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteByID(context.Background(), 99); err != nil {
		t.Errorf("DeleteByID() returned error: %v", err)
	}
}
