package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Difficulty grades a tour
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// DefaultRatingsAverage is reported for tours without reviews
const DefaultRatingsAverage = 4.5

// Location is a GeoJSON point with a description. Coordinates are
// [longitude, latitude].
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates" validate:"omitempty,len=2"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty" validate:"gte=0"`
}

// Lng returns the longitude of the point
func (l Location) Lng() float64 {
	if len(l.Coordinates) != 2 {
		return 0
	}
	return l.Coordinates[0]
}

// Lat returns the latitude of the point
func (l Location) Lat() float64 {
	if len(l.Coordinates) != 2 {
		return 0
	}
	return l.Coordinates[1]
}

// Tour represents a bookable tour
type Tour struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name" validate:"required,min=10,max=40"`
	Duration        int         `json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int         `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      Difficulty  `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64     `json:"ratingsAverage" validate:"gte=1,lte=5"`
	RatingsQuantity int         `json:"ratingsQuantity" validate:"gte=0"`
	Price           float64     `json:"price" validate:"required,gt=0"`
	PriceDiscount   *float64    `json:"priceDiscount,omitempty" validate:"omitempty,gte=0"`
	Summary         string      `json:"summary" validate:"required"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"imageCover" validate:"required"`
	Images          []string    `json:"images"`
	StartDates      []time.Time `json:"startDates"`
	SecretTour      bool        `json:"secretTour"`
	StartLocation   Location    `json:"startLocation"`
	Locations       []Location  `json:"locations" validate:"dive"`
	Guides          []uuid.UUID `json:"guides"`
	CreatedAt       time.Time   `json:"createdAt"`
	Version         int         `json:"version"`

	// Expanded on single reads only, never persisted.
	Reviews       []*Review  `json:"reviews,omitempty"`
	GuideProfiles []*Profile `json:"guideProfiles,omitempty"`
}

var tourMessages = map[string]string{
	"name.required":         "A tour must have a name",
	"name.min":              "A tour name must have more or equal than 10 characters",
	"name.max":              "A tour name must have less or equal than 40 characters",
	"duration.required":     "A tour must have a duration",
	"maxGroupSize.required": "A tour must have a group size",
	"difficulty.required":   "A tour must have a difficulty",
	"difficulty.oneof":      "Difficulty is either: easy, medium, difficult",
	"ratingsAverage.gte":    "Rating must be above 1.0",
	"ratingsAverage.lte":    "Rating must be below 5.0",
	"price.required":        "A tour must have a price",
	"summary.required":      "A tour must have a summary",
	"imageCover.required":   "A tour must have a cover image",
	"coordinates.len":       "Coordinates must be [longitude, latitude]",
}

// NewTour returns a tour carrying the schema defaults
func NewTour() *Tour {
	return &Tour{
		RatingsAverage: DefaultRatingsAverage,
	}
}

// Normalize trims the free-text fields
func (t *Tour) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	if t.StartLocation.Type == "" {
		t.StartLocation.Type = "Point"
	}
	for i := range t.Locations {
		if t.Locations[i].Type == "" {
			t.Locations[i].Type = "Point"
		}
	}
}

// Validate checks the tour against its schema rules
func (t *Tour) Validate() error {
	var extra []FieldError
	if t.PriceDiscount != nil && *t.PriceDiscount >= t.Price {
		extra = append(extra, FieldError{
			Field:   "priceDiscount",
			Message: "Discount price must be below the regular price",
		})
	}
	return validateStruct("tour", t, tourMessages, extra...)
}

// DurationWeeks is derived from the duration in days
func (t *Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

// MarshalJSON adds the derived fields
func (t Tour) MarshalJSON() ([]byte, error) {
	type alias Tour
	return json.Marshal(struct {
		alias
		DurationWeeks float64 `json:"durationWeeks"`
	}{alias: alias(t), DurationWeeks: t.DurationWeeks()})
}

// TourStats aggregates tours of one difficulty
type TourStats struct {
	Difficulty Difficulty `json:"difficulty"`
	NumTours   int        `json:"numTours"`
	NumRatings int        `json:"numRatings"`
	AvgRating  float64    `json:"avgRating"`
	AvgPrice   float64    `json:"avgPrice"`
	MinPrice   float64    `json:"minPrice"`
	MaxPrice   float64    `json:"maxPrice"`
}

// MonthlyPlan counts tour starts in one month
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// TourDistance is the distance from a point to a tour start
type TourDistance struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Distance float64   `json:"distance"`
}
