package domain

import (
	"math"
	"strconv"
	"strings"
)

// ProductDraft is the input of product creation, shared by the create form
// and the catalog service. Price and Stock are pointers so that "missing"
// can be told apart from zero.
type ProductDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Brand       string   `json:"brand,omitempty"`
	Stock       *int     `json:"stock"`
	Category    string   `json:"category"`
}

// Normalize trims the free text fields in place.
func (d *ProductDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Brand = strings.TrimSpace(d.Brand)
	d.Category = strings.TrimSpace(d.Category)
}

func (d ProductDraft) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(d.Title) == "" {
		verr.Add("title", "title is required")
	}
	if strings.TrimSpace(d.Description) == "" {
		verr.Add("description", "description is required")
	}
	switch {
	case d.Price == nil:
		verr.Add("price", "price is required")
	case math.IsNaN(*d.Price) || math.IsInf(*d.Price, 0):
		verr.Add("price", "price must be a number")
	case *d.Price < 0:
		verr.Add("price", "price cannot be negative")
	}
	switch {
	case d.Stock == nil:
		verr.Add("stock", "stock is required")
	case *d.Stock < 0:
		verr.Add("stock", "stock cannot be negative")
	}
	if strings.TrimSpace(d.Category) == "" {
		verr.Add("category", "category is required")
	}
	return verr.OrNil()
}

// DraftFromForm builds a draft from raw form values. Unparseable numbers are
// reported as validation errors; the result is normalized but not validated.
func DraftFromForm(title, description, price, stock, category, brand string) (ProductDraft, error) {
	d := ProductDraft{
		Title:       title,
		Description: description,
		Brand:       brand,
		Category:    category,
	}
	d.Normalize()

	verr := &ValidationError{}
	if p := strings.TrimSpace(price); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			verr.Add("price", "price must be a number")
		} else {
			d.Price = &v
		}
	}
	if s := strings.TrimSpace(stock); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			verr.Add("stock", "stock must be a whole number")
		} else {
			d.Stock = &v
		}
	}
	return d, verr.OrNil()
}

// Product materializes the draft with catalog defaults applied.
func (d ProductDraft) Product() Product {
	p := Product{
		Title:       d.Title,
		Description: d.Description,
		Brand:       d.Brand,
		Category:    d.Category,
		Images:      []string{},
		Rating:      []float64{0},
	}
	if d.Price != nil {
		p.Price = *d.Price
	}
	if d.Stock != nil {
		p.Stock = *d.Stock
	}
	return p
}
