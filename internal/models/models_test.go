package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTour() *Tour {
	t := NewTour()
	t.Name = "The Forest Hiker"
	t.Duration = 5
	t.MaxGroupSize = 25
	t.Difficulty = DifficultyEasy
	t.Price = 397
	t.Summary = "Breathtaking hike through the Canadian Banff National Park"
	t.ImageCover = "tour-1-cover.jpg"
	return t
}

func TestTourValidate(t *testing.T) {
	discount := func(v float64) *float64 { return &v }

	tests := []struct {
		name      string
		mutate    func(*Tour)
		wantField string
	}{
		{name: "valid", mutate: func(*Tour) {}},
		{name: "short name", mutate: func(t *Tour) { t.Name = "Hike" }, wantField: "name"},
		{name: "unknown difficulty", mutate: func(t *Tour) { t.Difficulty = "extreme" }, wantField: "difficulty"},
		{name: "rating above bound", mutate: func(t *Tour) { t.RatingsAverage = 5.5 }, wantField: "ratingsAverage"},
		{name: "discount equal to price", mutate: func(t *Tour) { t.PriceDiscount = discount(397) }, wantField: "priceDiscount"},
		{name: "discount below price", mutate: func(t *Tour) { t.PriceDiscount = discount(100) }},
		{name: "missing cover", mutate: func(t *Tour) { t.ImageCover = "" }, wantField: "imageCover"},
		{name: "bad coordinates", mutate: func(t *Tour) { t.StartLocation.Coordinates = []float64{1} }, wantField: "coordinates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tour := validTour()
			tt.mutate(tour)

			err := tour.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			fields := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestTourMarshalAddsDurationWeeks(t *testing.T) {
	tour := validTour()
	tour.Duration = 14

	raw, err := json.Marshal(tour)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, 2.0, doc["durationWeeks"])
	assert.Equal(t, "The Forest Hiker", doc["name"])
}

func TestUserValidate(t *testing.T) {
	u := NewUser()
	u.Name = " Jonas "
	u.Email = " Jonas@Example.COM "
	u.Normalize()

	assert.Equal(t, "jonas@example.com", u.Email)
	assert.Equal(t, "Jonas", u.Name)
	assert.NoError(t, u.Validate())

	u.Email = "not-an-email"
	assert.Error(t, u.Validate())

	u.Email = "jonas@example.com"
	u.Role = "owner"
	assert.Error(t, u.Validate())
}

func TestUserHidesSecrets(t *testing.T) {
	now := time.Now()
	u := &User{
		ID:                 uuid.New(),
		Name:               "Jonas",
		Email:              "jonas@example.com",
		Role:               RoleUser,
		PasswordHash:       "$2a$12$hash",
		PasswordResetToken: "deadbeef",
		PasswordChangedAt:  &now,
	}

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hash")
	assert.NotContains(t, string(raw), "deadbeef")
	assert.NotContains(t, string(raw), "active")
}

func TestPasswordValidate(t *testing.T) {
	tests := []struct {
		name    string
		pw      Password
		wantErr bool
	}{
		{name: "matching", pw: Password{Password: "pass1234", PasswordConfirm: "pass1234"}},
		{name: "too short", pw: Password{Password: "pass", PasswordConfirm: "pass"}, wantErr: true},
		{name: "mismatch", pw: Password{Password: "pass1234", PasswordConfirm: "pass12345"}, wantErr: true},
		{name: "missing confirm", pw: Password{Password: "pass1234"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pw.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChangedPasswordAfter(t *testing.T) {
	changed := time.Unix(1_700_000_000, 0)
	u := &User{}
	assert.False(t, u.ChangedPasswordAfter(1_600_000_000))

	u.PasswordChangedAt = &changed
	assert.True(t, u.ChangedPasswordAfter(1_699_999_999))
	assert.False(t, u.ChangedPasswordAfter(1_700_000_000))
}

func TestReviewValidate(t *testing.T) {
	r := &Review{Review: "Amazing!", Rating: 5, TourID: uuid.New(), UserID: uuid.New()}
	assert.NoError(t, r.Validate())

	r.Rating = 0
	assert.Error(t, r.Validate())

	r.Rating = 4
	r.TourID = uuid.Nil
	assert.Error(t, r.Validate())
}

func TestRatingStatsNormalized(t *testing.T) {
	assert.Equal(t, RatingStats{Quantity: 0, Average: 4.5}, RatingStats{}.Normalized())
	assert.Equal(t, RatingStats{Quantity: 2, Average: 3.5}, RatingStats{Quantity: 2, Average: 3.5}.Normalized())
}
