package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Brand       string    `json:"brand,omitempty"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Images      []string  `json:"images"`
	Rating      []float64 `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RatingAverage is the plain mean of all ratings, 0 when there are none.
func (p Product) RatingAverage() float64 {
	if len(p.Rating) == 0 {
		return 0
	}
	var sum float64
	for _, r := range p.Rating {
		sum += r
	}
	return sum / float64(len(p.Rating))
}

// CoverImage returns the first image URL or "" for products without images.
func (p Product) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
