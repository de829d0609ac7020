package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReviews(t *testing.T) (*ReviewService, *fakeTours, *models.Tour) {
	t.Helper()
	tours := newFakeTours()
	tour, err := tours.Create(context.Background(), testTour("The Forest Hiker"))
	require.NoError(t, err)
	return NewReviewService(newFakeReviews(), tours, zap.NewNop()), tours, tour
}

func testTour(name string) *models.Tour {
	tour := models.NewTour()
	tour.Name = name
	tour.Duration = 5
	tour.MaxGroupSize = 25
	tour.Difficulty = models.DifficultyEasy
	tour.Price = 397
	tour.Summary = "Breathtaking hike through the Canadian Banff National Park"
	tour.ImageCover = "tour-1-cover.jpg"
	return tour
}

func ratingsOf(t *testing.T, tours *fakeTours, id uuid.UUID) (float64, int) {
	t.Helper()
	tour, err := tours.FindByID(context.Background(), id)
	require.NoError(t, err)
	return tour.RatingsAverage, tour.RatingsQuantity
}

func TestReviewWritesRecomputeTourRatings(t *testing.T) {
	s, tours, tour := newTestReviews(t)
	ctx := context.Background()

	first, err := s.Create(ctx, &models.Review{Review: "Loved it", Rating: 5, TourID: tour.ID, UserID: uuid.New()})
	require.NoError(t, err)
	avg, qty := ratingsOf(t, tours, tour.ID)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 1, qty)

	_, err = s.Create(ctx, &models.Review{Review: "Too long", Rating: 3, TourID: tour.ID, UserID: uuid.New()})
	require.NoError(t, err)
	avg, qty = ratingsOf(t, tours, tour.ID)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 2, qty)

	first.Rating = 4
	_, err = s.Update(ctx, first)
	require.NoError(t, err)
	avg, qty = ratingsOf(t, tours, tour.ID)
	assert.Equal(t, 3.5, avg)
	assert.Equal(t, 2, qty)

	require.NoError(t, s.Delete(ctx, first.ID))
	avg, qty = ratingsOf(t, tours, tour.ID)
	assert.Equal(t, 3.0, avg)
	assert.Equal(t, 1, qty)
}

func TestDeletingOnlyReviewResetsRatings(t *testing.T) {
	s, tours, tour := newTestReviews(t)
	ctx := context.Background()

	review, err := s.Create(ctx, &models.Review{Review: "Meh", Rating: 2, TourID: tour.ID, UserID: uuid.New()})
	require.NoError(t, err)
	avg, _ := ratingsOf(t, tours, tour.ID)
	assert.Equal(t, 2.0, avg)

	require.NoError(t, s.Delete(ctx, review.ID))
	avg, qty := ratingsOf(t, tours, tour.ID)
	assert.Equal(t, models.DefaultRatingsAverage, avg)
	assert.Equal(t, 0, qty)
}

func TestCreateReview(t *testing.T) {
	s, _, tour := newTestReviews(t)
	ctx := context.Background()
	author := uuid.New()

	tests := []struct {
		name       string
		review     *models.Review
		wantStatus int
	}{
		{name: "rating above range", review: &models.Review{Review: "x", Rating: 6, TourID: tour.ID, UserID: author}, wantStatus: http.StatusBadRequest},
		{name: "empty body", review: &models.Review{Review: "   ", Rating: 4, TourID: tour.ID, UserID: author}, wantStatus: http.StatusBadRequest},
		{name: "unknown tour", review: &models.Review{Review: "Nice", Rating: 4, TourID: uuid.New(), UserID: author}, wantStatus: http.StatusNotFound},
		{name: "valid", review: &models.Review{Review: "Nice", Rating: 4, TourID: tour.ID, UserID: author}},
		{name: "second review by same user", review: &models.Review{Review: "Again", Rating: 1, TourID: tour.ID, UserID: author}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.review)
			if tt.wantStatus == 0 {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantStatus, apperror.Translate(err).StatusCode)
		})
	}
}

func TestDeleteMissingReview(t *testing.T) {
	s, _, _ := newTestReviews(t)

	err := s.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
