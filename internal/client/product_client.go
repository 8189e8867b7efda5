package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/telk/go_shop/internal/domain"
	"github.com/telk/go_shop/internal/service"
)

// ProductClient implements service.ProductCatalog over the product
// service's HTTP API. Calls run through a circuit breaker so a struggling
// catalog does not stall every cart and order request behind it.
type ProductClient struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*service.ProductInfo]
}

func NewProductClient(baseURL string, timeout time.Duration) *ProductClient {
	settings := gobreaker.Settings{
		Name:        "product-catalog",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing product is a catalog answer, not a catalog outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, service.ErrProductNotFound)
		},
	}
	return &ProductClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*service.ProductInfo](settings),
	}
}

type productResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	SKU   string `json:"sku"`
	Price int64  `json:"price"`
}

func (c *ProductClient) GetProduct(ctx context.Context, id domain.ProductID) (*service.ProductInfo, error) {
	return c.breaker.Execute(func() (*service.ProductInfo, error) {
		url := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, id)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build product request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("call product service: %w", err)
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
		case http.StatusNotFound:
			return nil, service.ErrProductNotFound
		default:
			return nil, fmt.Errorf("product service returned status %d", resp.StatusCode)
		}

		var body productResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode product response: %w", err)
		}

		return &service.ProductInfo{
			ID:    domain.ProductID(body.ID),
			Name:  body.Name,
			SKU:   domain.SKU(body.SKU),
			Price: domain.Money(body.Price),
		}, nil
	})
}
