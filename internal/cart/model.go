package cart

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("insufficient stock")
	ErrItemNotInCart   = errors.New("item not in cart")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrMissingUser     = errors.New("user id is required")
)

// Item is one cart line joined with the product it refers to.
type Item struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Color     string  `json:"color,omitempty"`
	Style     string  `json:"style,omitempty"`
}

func (i Item) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Cart is the summary returned by GetCart.
type Cart struct {
	UserID    string  `json:"user_id"`
	Items     []Item  `json:"items"`
	ItemCount int     `json:"item_count"`
	Total     float64 `json:"total"`
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"omitempty,gte=1,lte=99"`
}
