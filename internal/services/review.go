package services

import (
	"context"
	"fmt"

	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService handles reviews and keeps the rating aggregates of their
// tours current. Every write is followed by an explicit recompute.
type ReviewService struct {
	reviews ReviewRepository
	tours   TourRepository
	logger  *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(reviews ReviewRepository, tours TourRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		tours:   tours,
		logger:  logger,
	}
}

// List returns the reviews matching q
func (s *ReviewService) List(ctx context.Context, q *query.Query) ([]*models.Review, error) {
	reviews, err := s.reviews.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// Get returns a review by ID
func (s *ReviewService) Get(ctx context.Context, id uuid.UUID, _ bool) (*models.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// Create stores a review of an existing tour
func (s *ReviewService) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	review.Normalize()
	if err := review.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.tours.FindByID(ctx, review.TourID); err != nil {
		return nil, fmt.Errorf("failed to get reviewed tour: %w", err)
	}

	created, err := s.reviews.Create(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.RecomputeRatings(ctx, created.TourID); err != nil {
		return nil, err
	}

	s.logger.Info("Review created",
		zap.String("review_id", created.ID.String()),
		zap.String("tour_id", created.TourID.String()),
	)
	return created, nil
}

// Update validates the merged review, saves it and recomputes the ratings
// of its tour
func (s *ReviewService) Update(ctx context.Context, review *models.Review) (*models.Review, error) {
	review.Normalize()
	if err := review.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.reviews.Update(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	if err := s.RecomputeRatings(ctx, updated.TourID); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a review and recomputes the ratings of its tour
func (s *ReviewService) Delete(ctx context.Context, id uuid.UUID) error {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get review: %w", err)
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	return s.RecomputeRatings(ctx, review.TourID)
}

// RecomputeRatings stores the count and mean rating of the reviews of a
// tour on the tour itself
func (s *ReviewService) RecomputeRatings(ctx context.Context, tourID uuid.UUID) error {
	stats, err := s.reviews.RatingStats(ctx, tourID)
	if err != nil {
		return fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	stats = stats.Normalized()
	if err := s.tours.UpdateRatings(ctx, tourID, stats); err != nil {
		return fmt.Errorf("failed to update tour ratings: %w", err)
	}

	s.logger.Debug("Tour ratings recomputed",
		zap.String("tour_id", tourID.String()),
		zap.Int("quantity", stats.Quantity),
		zap.Float64("average", stats.Average),
	)
	return nil
}
