package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Order is the aggregate root. IDs are assigned by the database on save.
// Price is the order total as submitted by the client; it is only derived
// from the line items for seeded demo orders, not recomputed for API
// submissions (matching the upstream behavior).
type Order struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Price     float64    `json:"price"`
	Date      Date       `json:"date"`
	LineItems []LineItem `json:"lineItems"`
}

// LineItem is owned by its parent order and carries no reference back to it.
// The parent relation exists only as the order_id column in storage, so a
// serialized order can never form a cycle.
type LineItem struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// Total returns the sum of qty x unit price across all line items.
func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.LineItems {
		total += float64(item.Qty) * item.Price
	}
	return total
}

const (
	StatusOrderAccepted = "ORDER_ACCEPTED"
)

// OrderEvent is the payload published to the order topic after a
// successful save. It is never persisted.
type OrderEvent struct {
	Order     *Order    `json:"order"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

const dateLayout = "2006-01-02"

// Date is a calendar date that marshals as "YYYY-MM-DD".
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("invalid date %s: %w", s, err)
	}
	*d = Date{Time: t}
	return nil
}

// Value implements driver.Valuer so a Date can be written to a DATE column.
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}
