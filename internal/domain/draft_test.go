package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func validDraft() ProductDraft {
	return ProductDraft{
		Title:       "Mochila",
		Description: "Mochila de cuero",
		Price:       ptrF(120000),
		Stock:       ptrI(4),
		Category:    "bolsos",
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validDraft().Validate())
}

func TestValidate_NegativePrice(t *testing.T) {
	d := validDraft()
	d.Price = ptrF(-5)

	err := d.Validate()
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "price cannot be negative", verr.Fields["price"])
	assert.Len(t, verr.Fields, 1)
}

func TestValidate_MissingFields(t *testing.T) {
	err := ProductDraft{Title: "   "}.Validate()

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"title":       "title is required",
		"description": "description is required",
		"price":       "price is required",
		"stock":       "stock is required",
		"category":    "category is required",
	}, verr.Fields)
}

func TestValidate_ZeroPriceAndStockAllowed(t *testing.T) {
	d := validDraft()
	d.Price = ptrF(0)
	d.Stock = ptrI(0)
	assert.NoError(t, d.Validate())
}

func TestDraftFromForm(t *testing.T) {
	d, err := DraftFromForm("  Lámpara ", "de mesa", "35000.5", "3", " hogar ", "  ")
	require.NoError(t, err)
	assert.Equal(t, "Lámpara", d.Title)
	assert.Equal(t, "hogar", d.Category)
	assert.Equal(t, "", d.Brand)
	assert.Equal(t, 35000.5, *d.Price)
	assert.Equal(t, 3, *d.Stock)
}

func TestDraftFromForm_BadNumbers(t *testing.T) {
	_, err := DraftFromForm("a", "b", "abc", "1.5", "c", "")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "price must be a number", verr.Fields["price"])
	assert.Equal(t, "stock must be a whole number", verr.Fields["stock"])
}

func TestDraftProduct_AppliesDefaults(t *testing.T) {
	p := validDraft().Product()
	assert.Equal(t, []string{}, p.Images)
	assert.Equal(t, []float64{0}, p.Rating)
	assert.Equal(t, 120000.0, p.Price)
	assert.Equal(t, 4, p.Stock)
}

func TestValidationError_Message(t *testing.T) {
	verr := &ValidationError{}
	verr.Add("title", "title is required")
	verr.Add("price", "price cannot be negative")
	verr.Add("price", "ignored second message")

	assert.Equal(t, "validation failed: price: price cannot be negative; title: title is required", verr.Error())
}

func TestJoinValidation(t *testing.T) {
	first := &ValidationError{}
	first.Add("price", "price must be a number")
	second := &ValidationError{}
	second.Add("price", "price is required")
	second.Add("title", "title is required")

	err := JoinValidation(nil, first, errors.New("not a validation error"), second)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"price": "price must be a number",
		"title": "title is required",
	}, verr.Fields)

	assert.NoError(t, JoinValidation(nil, (&ValidationError{}).OrNil()))
}
