package storefront

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fjod/go_bazar/internal/cart"
	"github.com/fjod/go_bazar/internal/catalogclient"
	"github.com/fjod/go_bazar/internal/domain"
	"github.com/fjod/go_bazar/internal/money"
	"github.com/fjod/go_bazar/internal/query"
	"github.com/shopspring/decimal"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	priceStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	starStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

const maxStars = 5

// Stars renders avg (0–5) as full, half and empty stars followed by the
// value, e.g. "★★★½☆ 3.5".
func Stars(avg float64) string {
	avg = math.Max(0, math.Min(maxStars, avg))
	full := int(avg)
	half := 0
	if avg-float64(full) >= 0.5 {
		half = 1
	}
	empty := maxStars - full - half
	s := strings.Repeat("★", full) + strings.Repeat("½", half) + strings.Repeat("☆", empty)
	return starStyle.Render(s) + fmt.Sprintf(" %.1f", avg)
}

func RenderSearch(st SearchState) string {
	switch st.Status {
	case query.Idle, query.Loading:
		return mutedStyle.Render("Loading...")
	case query.Error:
		return errorStyle.Render("Error: " + st.Err)
	}

	if len(st.Data) == 0 && st.Key != "" {
		return fmt.Sprintf("No results for %s", st.Key)
	}

	var b strings.Builder
	if st.Key != "" {
		b.WriteString(headingStyle.Render(fmt.Sprintf("Results for %q: %d", st.Key, len(st.Data))))
	} else {
		b.WriteString(headingStyle.Render(fmt.Sprintf("All products: %d", len(st.Data))))
	}
	for _, p := range st.Data {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s  %s  %s  %s",
			mutedStyle.Render(p.ID), p.Title, priceStyle.Render(money.FormatFloat(p.Price)), Stars(p.RatingAverage()))
	}
	return b.String()
}

func RenderDetail(st DetailState, inCart int) string {
	switch st.Status {
	case query.Idle, query.Loading:
		return mutedStyle.Render("Loading...")
	case query.Error:
		return errorStyle.Render(st.Err)
	}

	p := st.Data
	var b strings.Builder
	b.WriteString(headingStyle.Render(p.Title))
	if p.Brand != "" {
		b.WriteString(mutedStyle.Render(" · " + p.Brand))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", priceStyle.Render(money.FormatFloat(p.Price)))
	fmt.Fprintf(&b, "%s\n", Stars(p.RatingAverage()))
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	if p.Stock > 0 {
		fmt.Fprintf(&b, "In stock: %d\n", p.Stock)
	} else {
		b.WriteString(errorStyle.Render("Out of stock") + "\n")
	}
	if inCart > 0 {
		fmt.Fprintf(&b, "In your cart: %d\n", inCart)
	}
	b.WriteString("\n" + p.Description)
	if len(p.Images) > 0 {
		b.WriteString("\n")
		for _, u := range p.Images {
			b.WriteString("\n" + mutedStyle.Render(u))
		}
	}
	return b.String()
}

func RenderCart(items []cart.Item, total decimal.Decimal) string {
	if len(items) == 0 {
		return mutedStyle.Render("Your cart is empty")
	}
	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("Cart (%d)", len(items))))
	for _, it := range items {
		fmt.Fprintf(&b, "\n%s  %s x%d  %s",
			mutedStyle.Render(it.ID), it.Title, it.Units(), money.FormatCOP(it.Subtotal()))
	}
	b.WriteString("\n" + headingStyle.Render("Total:") + " " + priceStyle.Render(money.FormatCOP(total)))
	return b.String()
}

// RenderCreated is shown while waiting to redirect to the new product.
func RenderCreated(p *domain.Product) string {
	return headingStyle.Render("Product created:") + " " + p.Title + mutedStyle.Render(" ("+p.ID+")")
}

// RenderError formats err for the shopper, listing validation failures one
// field per line.
func RenderError(err error) string {
	var verr *domain.ValidationError
	var apiErr *catalogclient.APIError
	switch {
	case errors.As(err, &verr):
	case errors.As(err, &apiErr) && len(apiErr.Fields) > 0:
		verr = &domain.ValidationError{Fields: apiErr.Fields}
	default:
		return errorStyle.Render(catalogclient.Describe(err))
	}
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString(errorStyle.Render("Please fix the following:"))
	for _, f := range fields {
		fmt.Fprintf(&b, "\n  %s: %s", f, verr.Fields[f])
	}
	return b.String()
}
