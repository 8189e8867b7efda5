package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/telk/go_shop/internal/domain"
	"github.com/telk/go_shop/internal/service"
)

// InventoryClient implements service.InventoryChecker over the stock
// service's HTTP API.
type InventoryClient struct {
	baseURL string
	http    *http.Client
}

func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type stockResponse struct {
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
}

func (c *InventoryClient) CheckStock(ctx context.Context, id domain.ProductID, quantity int) error {
	url := fmt.Sprintf("%s/api/v1/stock/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build stock request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call stock service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return service.ErrProductNotFound
	default:
		return fmt.Errorf("stock service returned status %d", resp.StatusCode)
	}

	var body stockResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode stock response: %w", err)
	}

	if body.Available < quantity {
		return service.ErrInsufficientStock
	}
	return nil
}
