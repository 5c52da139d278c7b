package storefront

import (
	"errors"

	"github.com/fjod/go_bazar/internal/cart"
	"github.com/fjod/go_bazar/internal/domain"
)

var (
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and the available stock")
)

// ClampQuantity bounds a requested quantity to [1, stock]. It returns 0 when
// nothing can be bought.
func ClampQuantity(qty, stock int) int {
	if stock < 1 {
		return 0
	}
	if qty < 1 {
		return 1
	}
	if qty > stock {
		return stock
	}
	return qty
}

// AddToCart puts qty units of p in the cart, refusing quantities the
// product's stock cannot cover together with the units already in the cart.
func AddToCart(store *cart.Store, p domain.Product, qty int) error {
	if p.Stock < 1 {
		return ErrOutOfStock
	}
	if qty < 1 || store.Quantity(p.ID)+qty > p.Stock {
		return ErrInvalidQuantity
	}
	store.Add(p, qty)
	return nil
}

// IncrementInCart adds one unit unless that would exceed stock.
func IncrementInCart(store *cart.Store, p domain.Product) error {
	if store.Quantity(p.ID)+1 > p.Stock {
		return ErrInvalidQuantity
	}
	store.Increment(p.ID)
	return nil
}
