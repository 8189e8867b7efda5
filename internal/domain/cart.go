package domain

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

const (
	// MinQuantity and MaxQuantity bound the quantity of a single cart line.
	MinQuantity = 1
	MaxQuantity = 99

	// MaxDistinctItems bounds the number of distinct (product, options)
	// selections a cart may hold.
	MaxDistinctItems = 50
)

// CartItem is one line inside a cart: a product selection with a quantity
// and availability metadata maintained by the stock-sync consumer.
type CartItem struct {
	ID                string            `bson:"id" json:"id"`
	ProductID         ProductID         `bson:"product_id" json:"product_id"`
	SKU               SKU               `bson:"sku" json:"sku"`
	Options           map[string]string `bson:"options,omitempty" json:"options,omitempty"`
	Quantity          int               `bson:"quantity" json:"quantity"`
	Available         bool              `bson:"available" json:"available"`
	UnavailableReason string            `bson:"unavailable_reason,omitempty" json:"unavailable_reason,omitempty"`
	AddedAt           time.Time         `bson:"added_at" json:"added_at"`
	UpdatedAt         time.Time         `bson:"updated_at" json:"updated_at"`
}

// sameSelection reports whether the line holds the given product with the
// exact same option choices. Two such lines may never coexist in one cart.
func (i CartItem) sameSelection(productID ProductID, options map[string]string) bool {
	return i.ProductID == productID && maps.Equal(i.Options, options)
}

// Cart is the pre-order aggregate for one customer. All mutation goes
// through its methods; a failed operation leaves the cart untouched, and a
// converted cart rejects every further mutation.
type Cart struct {
	ID         CartID     `bson:"_id" json:"id"`
	CustomerID CustomerID `bson:"customer_id" json:"customer_id"`
	Items      []CartItem `bson:"items" json:"items"`
	Converted  bool       `bson:"converted" json:"converted"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
}

func NewCart(tp TimeProvider, customerID CustomerID) (*Cart, error) {
	if isBlank(string(customerID)) {
		return nil, wrapf(ErrInvalidIdentifier, "customer id must not be blank")
	}
	now := tp.Now()
	return &Cart{
		ID:         CartID(uuid.NewString()),
		CustomerID: customerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func validateQuantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return wrapf(ErrInvalidQuantity, "got %d", quantity)
	}
	return nil
}

// AddItem adds quantity of the given selection. A line matching the same
// (product, options) pair absorbs the quantity; otherwise a new line is
// appended. The combined quantity must stay within [1,99] and a new line
// must not push the cart past MaxDistinctItems.
func (c *Cart) AddItem(tp TimeProvider, productID ProductID, sku SKU, options map[string]string, quantity int) error {
	if c.Converted {
		return ErrCartAlreadyConverted
	}
	if isBlank(string(productID)) {
		return wrapf(ErrInvalidIdentifier, "product id must not be blank")
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	now := tp.Now()
	if existing := c.findSelection(productID, options); existing != nil {
		merged := existing.Quantity + quantity
		if err := validateQuantity(merged); err != nil {
			return err
		}
		existing.Quantity = merged
		existing.UpdatedAt = now
		c.UpdatedAt = now
		return nil
	}

	if len(c.Items) >= MaxDistinctItems {
		return ErrCartItemLimit
	}

	c.Items = append(c.Items, CartItem{
		ID:        uuid.NewString(),
		ProductID: productID,
		SKU:       sku,
		Options:   maps.Clone(options),
		Quantity:  quantity,
		Available: true,
		AddedAt:   now,
		UpdatedAt: now,
	})
	c.UpdatedAt = now
	return nil
}

// UpdateQuantity replaces the quantity of the line with the given id.
func (c *Cart) UpdateQuantity(tp TimeProvider, cartItemID string, quantity int) error {
	if c.Converted {
		return ErrCartAlreadyConverted
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	item := c.findItem(cartItemID)
	if item == nil {
		return wrapf(ErrInvalidCartState, "cart item %s not found", cartItemID)
	}
	now := tp.Now()
	item.Quantity = quantity
	item.UpdatedAt = now
	c.UpdatedAt = now
	return nil
}

// RemoveItem deletes the line with the given id.
func (c *Cart) RemoveItem(tp TimeProvider, cartItemID string) error {
	if c.Converted {
		return ErrCartAlreadyConverted
	}
	for i, item := range c.Items {
		if item.ID == cartItemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = tp.Now()
			return nil
		}
	}
	return wrapf(ErrInvalidCartState, "cart item %s not found", cartItemID)
}

// Merge folds every line of source into this cart using AddItem semantics.
// The whole merge is validated up front: if any line would overflow its
// quantity bound or push the cart past the distinct-item ceiling, nothing
// is applied.
func (c *Cart) Merge(tp TimeProvider, source *Cart) error {
	if c.Converted {
		return ErrCartAlreadyConverted
	}
	if source.ID == c.ID {
		return wrapf(ErrInvalidCartState, "cart cannot be merged into itself")
	}

	// First pass: validate the merged result without touching the cart.
	distinct := len(c.Items)
	for _, item := range source.Items {
		if err := validateQuantity(item.Quantity); err != nil {
			return err
		}
		if existing := c.findSelection(item.ProductID, item.Options); existing != nil {
			if err := validateQuantity(existing.Quantity + item.Quantity); err != nil {
				return err
			}
			continue
		}
		distinct++
		if distinct > MaxDistinctItems {
			return ErrCartItemLimit
		}
	}

	// Second pass: apply.
	now := tp.Now()
	for _, item := range source.Items {
		if existing := c.findSelection(item.ProductID, item.Options); existing != nil {
			existing.Quantity += item.Quantity
			existing.UpdatedAt = now
			continue
		}
		c.Items = append(c.Items, CartItem{
			ID:        uuid.NewString(),
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Options:   maps.Clone(item.Options),
			Quantity:  item.Quantity,
			Available: item.Available,
			AddedAt:   now,
			UpdatedAt: now,
		})
	}
	c.UpdatedAt = now
	return nil
}

// ConvertToOrder marks the cart converted and returns a copy of its lines
// for order creation. The transition is one-way: a converted cart can never
// be mutated again.
func (c *Cart) ConvertToOrder(tp TimeProvider) ([]CartItem, error) {
	if c.Converted {
		return nil, ErrCartAlreadyConverted
	}
	if len(c.Items) == 0 {
		return nil, wrapf(ErrInvalidCartState, "cart is empty")
	}
	c.Converted = true
	c.UpdatedAt = tp.Now()

	snapshot := make([]CartItem, len(c.Items))
	copy(snapshot, c.Items)
	for i := range snapshot {
		snapshot[i].Options = maps.Clone(snapshot[i].Options)
	}
	return snapshot, nil
}

// MarkItemUnavailable records that the line's product cannot currently be
// purchased. Availability is metadata only; quantity bounds are unaffected.
func (c *Cart) MarkItemUnavailable(tp TimeProvider, cartItemID, reason string) error {
	if c.Converted {
		return ErrCartAlreadyConverted
	}
	item := c.findItem(cartItemID)
	if item == nil {
		return wrapf(ErrInvalidCartState, "cart item %s not found", cartItemID)
	}
	now := tp.Now()
	item.Available = false
	item.UnavailableReason = reason
	item.UpdatedAt = now
	c.UpdatedAt = now
	return nil
}

// MarkItemAvailable clears the unavailability flag set by MarkItemUnavailable.
func (c *Cart) MarkItemAvailable(tp TimeProvider, cartItemID string) error {
	if c.Converted {
		return ErrCartAlreadyConverted
	}
	item := c.findItem(cartItemID)
	if item == nil {
		return wrapf(ErrInvalidCartState, "cart item %s not found", cartItemID)
	}
	now := tp.Now()
	item.Available = true
	item.UnavailableReason = ""
	item.UpdatedAt = now
	c.UpdatedAt = now
	return nil
}

func (c *Cart) findSelection(productID ProductID, options map[string]string) *CartItem {
	for i := range c.Items {
		if c.Items[i].sameSelection(productID, options) {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) findItem(cartItemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == cartItemID {
			return &c.Items[i]
		}
	}
	return nil
}
