package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Review is a rating of one tour by one user
type Review struct {
	ID        uuid.UUID `json:"id"`
	Review    string    `json:"review" validate:"required"`
	Rating    float64   `json:"rating" validate:"required,gte=1,lte=5"`
	CreatedAt time.Time `json:"createdAt"`
	TourID    uuid.UUID `json:"tour" validate:"required"`
	UserID    uuid.UUID `json:"user" validate:"required"`
	Version   int       `json:"version"`

	Author *Profile `json:"author,omitempty"`
}

var reviewMessages = map[string]string{
	"review.required": "Review can not be empty!",
	"rating.required": "A review must have a rating",
	"rating.gte":      "Rating must be above 1.0",
	"rating.lte":      "Rating must be below 5.0",
	"tour.required":   "Review must belong to a tour",
	"user.required":   "Review must belong to a user",
}

// NewReview returns an empty review
func NewReview() *Review {
	return &Review{}
}

// Normalize trims the review body
func (r *Review) Normalize() {
	r.Review = strings.TrimSpace(r.Review)
}

// Validate checks the review against its schema rules
func (r *Review) Validate() error {
	return validateStruct("review", r, reviewMessages)
}

// RatingStats is the aggregate of all reviews of one tour
type RatingStats struct {
	Quantity int
	Average  float64
}

// Normalized returns the stats to store on the tour; a tour without reviews
// falls back to the default average.
func (s RatingStats) Normalized() RatingStats {
	if s.Quantity == 0 {
		return RatingStats{Quantity: 0, Average: DefaultRatingsAverage}
	}
	return s
}
