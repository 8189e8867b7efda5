package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/telk/go_shop/internal/domain"
)

// StockEvent is the payload the inventory side publishes when a product
// goes out of stock or becomes purchasable again.
type StockEvent struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	InStock   bool   `json:"in_stock"`
	Reason    string `json:"reason"`
}

type cartFinder interface {
	FindActiveByProductID(ctx context.Context, productID domain.ProductID) ([]domain.Cart, error)
}

type itemMarker interface {
	MarkItemUnavailable(ctx context.Context, cartID domain.CartID, cartItemID, reason string) error
	MarkItemAvailable(ctx context.Context, cartID domain.CartID, cartItemID string) error
}

// StockConsumer flips availability flags on cart lines when stock events
// arrive. Carts are touched one by one; a failure on one cart does not stop
// the fan-out to the rest.
type StockConsumer struct {
	carts  cartFinder
	marker itemMarker
	reader *kafka.Reader
}

func NewStockConsumer(carts cartFinder, marker itemMarker, brokers ...string) *StockConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "stock-events",
		GroupID:  "purchase-service",
		MaxBytes: 10e6, // 10MB
	})
	return &StockConsumer{carts: carts, marker: marker, reader: reader}
}

func (c *StockConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *StockConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *StockConsumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	var event StockEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Printf("error parsing stock event: %v", err)
		return
	}

	c.handleEvent(ctx, event)
}

func (c *StockConsumer) handleEvent(ctx context.Context, event StockEvent) {
	productID, err := domain.NewProductID(event.ProductID)
	if err != nil {
		log.Printf("invalid product_id in stock event: %v", err)
		return
	}

	carts, err := c.carts.FindActiveByProductID(ctx, productID)
	if err != nil {
		log.Printf("failed to find carts for product %s: %v", productID, err)
		return
	}

	for _, cart := range carts {
		for _, item := range cart.Items {
			if item.ProductID != productID {
				continue
			}
			if event.InStock {
				err = c.marker.MarkItemAvailable(ctx, cart.ID, item.ID)
			} else {
				err = c.marker.MarkItemUnavailable(ctx, cart.ID, item.ID, event.Reason)
			}
			if err != nil {
				log.Printf("failed to update availability for cart %s item %s: %v", cart.ID, item.ID, err)
			}
		}
	}
}
