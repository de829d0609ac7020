package repository

import "github.com/denzelpenzel/tours/internal/query"

// TourSchema exposes the tour fields to the query pipeline
var TourSchema = &query.Schema{
	Fields: map[string]query.Field{
		"id":              {Column: "id", Kind: query.UUID},
		"name":            {Column: "name", Kind: query.String},
		"duration":        {Column: "duration", Kind: query.Integer},
		"maxGroupSize":    {Column: "max_group_size", Kind: query.Integer},
		"difficulty":      {Column: "difficulty", Kind: query.String},
		"ratingsAverage":  {Column: "ratings_average", Kind: query.Number},
		"ratingsQuantity": {Column: "ratings_quantity", Kind: query.Integer},
		"price":           {Column: "price", Kind: query.Number},
		"priceDiscount":   {Column: "price_discount", Kind: query.Number},
		"summary":         {Column: "summary", Kind: query.String},
		"description":     {Column: "description", Kind: query.String},
		"imageCover":      {Column: "image_cover", Kind: query.String},
		"createdAt":       {Column: "created_at", Kind: query.Time},
		"version":         {Column: "version", Kind: query.Integer},
	},
	Virtual: []string{
		"durationWeeks", "images", "startDates", "secretTour",
		"startLocation", "locations", "guides",
	},
	Reserved: "version",
	Pollution: []string{
		"duration", "ratingsAverage", "ratingsQuantity", "maxGroupSize", "difficulty", "price",
	},
}

// UserSchema exposes the public user fields to the query pipeline
var UserSchema = &query.Schema{
	Fields: map[string]query.Field{
		"id":        {Column: "id", Kind: query.UUID},
		"name":      {Column: "name", Kind: query.String},
		"email":     {Column: "email", Kind: query.String},
		"photo":     {Column: "photo", Kind: query.String},
		"role":      {Column: "role", Kind: query.String},
		"createdAt": {Column: "created_at", Kind: query.Time},
		"version":   {Column: "version", Kind: query.Integer},
	},
	Reserved: "version",
}

// ReviewSchema exposes the review fields to the query pipeline. Columns are
// qualified because reviews are read joined with their authors.
var ReviewSchema = &query.Schema{
	Fields: map[string]query.Field{
		"id":        {Column: "r.id", Kind: query.UUID},
		"review":    {Column: "r.review", Kind: query.String},
		"rating":    {Column: "r.rating", Kind: query.Number},
		"tour":      {Column: "r.tour_id", Kind: query.UUID},
		"user":      {Column: "r.user_id", Kind: query.UUID},
		"createdAt": {Column: "r.created_at", Kind: query.Time},
		"version":   {Column: "r.version", Kind: query.Integer},
	},
	Virtual:  []string{"author"},
	Reserved: "version",
}
