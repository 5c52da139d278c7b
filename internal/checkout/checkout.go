// Package checkout turns a cart into an order summary and hands it off to a
// messaging deep link. The hand-off is one way: nothing confirms delivery.
package checkout

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fjod/go_bazar/internal/cart"
	"github.com/fjod/go_bazar/internal/domain"
	"github.com/fjod/go_bazar/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const deepLinkBase = "https://wa.me/"

var ErrEmptyCart = errors.New("cart is empty")

type Customer struct {
	Name    string
	Address string
}

func (c Customer) Validate() error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(c.Name) == "" {
		verr.Add("name", "name is required")
	}
	if strings.TrimSpace(c.Address) == "" {
		verr.Add("address", "address is required")
	}
	return verr.OrNil()
}

type Order struct {
	Ref      string
	Customer Customer
	Items    []cart.Item
	Total    decimal.Decimal
}

func NewOrder(c Customer, items []cart.Item) Order {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return Order{
		Ref:      strings.ToUpper(uuid.NewString()[:8]),
		Customer: Customer{Name: strings.TrimSpace(c.Name), Address: strings.TrimSpace(c.Address)},
		Items:    items,
		Total:    total,
	}
}

// Summary is the plain text message sent to the shop.
func (o Order) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n", o.Ref)
	fmt.Fprintf(&b, "Name: %s\n", o.Customer.Name)
	fmt.Fprintf(&b, "Address: %s\n", o.Customer.Address)
	b.WriteString("\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d @ %s = %s\n",
			it.Title, it.Units(), money.FormatFloat(it.Price), money.FormatCOP(it.Subtotal()))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total: %s", money.FormatCOP(o.Total))
	return b.String()
}

// DeepLink builds the messaging URL that opens a chat with phone and text
// prefilled.
func DeepLink(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return deepLinkBase + digits + "?text=" + url.QueryEscape(text)
}

type Result struct {
	Order Order
	Text  string
	URL   string
}

// Checkout validates the customer, builds the hand-off link for the current
// cart contents and clears the cart.
func Checkout(store *cart.Store, c Customer, phone string) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, err
	}
	items := store.Items()
	if len(items) == 0 {
		return Result{}, ErrEmptyCart
	}

	order := NewOrder(c, items)
	text := order.Summary()
	res := Result{
		Order: order,
		Text:  text,
		URL:   DeepLink(phone, text),
	}
	store.Clear()
	return res, nil
}
