package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingAverage(t *testing.T) {
	assert.Equal(t, 0.0, Product{}.RatingAverage())
	assert.Equal(t, 3.5, Product{Rating: []float64{3, 4}}.RatingAverage())
	assert.Equal(t, 0.0, Product{Rating: []float64{0}}.RatingAverage())
}

func TestCoverImage(t *testing.T) {
	assert.Equal(t, "", Product{}.CoverImage())
	assert.Equal(t, "a.png", Product{Images: []string{"a.png", "b.png"}}.CoverImage())
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestValidateImages(t *testing.T) {
	ok := Image{Filename: "a.png", Data: pngHeader}
	require.NoError(t, ValidateImages([]Image{ok}))
	require.NoError(t, ValidateImages(nil))

	tooMany := make([]Image, MaxImages+1)
	for i := range tooMany {
		tooMany[i] = ok
	}
	assert.ErrorIs(t, ValidateImages(tooMany), ErrValidation)

	big := Image{Filename: "big.png", ContentType: "image/png", Data: bytes.Repeat([]byte{1}, MaxImageBytes+1)}
	assert.ErrorContains(t, ValidateImages([]Image{big}), "exceeds 5 MB")

	text := Image{Filename: "notes.txt", Data: []byte("hello world")}
	assert.ErrorContains(t, ValidateImages([]Image{text}), "unsupported type")
}
