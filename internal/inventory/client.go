package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Client talks to the inventory microservice. The order service constructs
// one at startup but only calls it when inventory sync is enabled.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// UpdateInventory notifies the inventory service of a new order and returns
// the downstream order count.
func (c *Client) UpdateInventory(ctx context.Context) (int64, error) {
	c.logger.Info("Calling the inventory microservice")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/inventory", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call inventory service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}

	var count int64
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, fmt.Errorf("failed to decode inventory response: %w", err)
	}

	c.logger.WithField("order_count", count).Info("Response received from inventory microservice")
	return count, nil
}
