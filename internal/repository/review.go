package repository

import (
	"context"
	"fmt"

	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// reviews are read together with the public profile of their author.
// Deactivated authors leave the profile empty.
const reviewSource = "reviews r LEFT JOIN users u ON u.id = r.user_id AND u.active = true"

var reviewColumns = []string{
	"r.id", "r.review", "r.rating", "r.created_at", "r.tour_id", "r.user_id", "r.version",
	"COALESCE(u.name, '')", "COALESCE(u.photo, '')",
}

// ReviewRepository stores reviews
type ReviewRepository struct {
	db     DB
	logger *zap.Logger
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db DB, logger *zap.Logger) *ReviewRepository {
	return &ReviewRepository{db: db, logger: logger}
}

func scanReview(row pgx.Row) (*models.Review, error) {
	rv := &models.Review{}
	var authorName, authorPhoto string
	err := row.Scan(
		&rv.ID,
		&rv.Review,
		&rv.Rating,
		&rv.CreatedAt,
		&rv.TourID,
		&rv.UserID,
		&rv.Version,
		&authorName,
		&authorPhoto,
	)
	if err != nil {
		return nil, err
	}
	if authorName != "" {
		rv.Author = &models.Profile{ID: rv.UserID, Name: authorName, Photo: authorPhoto}
	}
	return rv, nil
}

// Find returns the reviews matching q
func (r *ReviewRepository) Find(ctx context.Context, q *query.Query) ([]*models.Review, error) {
	if q == nil {
		q = query.New()
	}
	sql, args := q.Build(reviewSource, reviewColumns)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		r.logger.Error("Failed to query reviews", zap.Error(err))
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}

	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Review, error) {
		return scanReview(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan reviews: %w", err)
	}
	return reviews, nil
}

// FindByID returns a review
func (r *ReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	sql, args := query.New().Where("r.id", query.OpEq, id).Build(reviewSource, reviewColumns)

	review, err := scanReview(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, one(err, "get review")
	}
	return review, nil
}

// Create inserts a review; a second review of the same tour by the same
// user violates a unique constraint
func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) (*models.Review, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx,
		`INSERT INTO reviews (review, rating, tour_id, user_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		rv.Review, rv.Rating, rv.TourID, rv.UserID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}
	return r.FindByID(ctx, id)
}

// Update overwrites the text and rating of a review and bumps its version
func (r *ReviewRepository) Update(ctx context.Context, rv *models.Review) (*models.Review, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE reviews SET review = $2, rating = $3, version = version + 1 WHERE id = $1`,
		rv.ID, rv.Review, rv.Rating,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, one(pgx.ErrNoRows, "update review")
	}
	return r.FindByID(ctx, rv.ID)
}

// Delete removes a review
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "reviews", id)
}

// RatingStats counts the reviews of a tour and averages their ratings
func (r *ReviewRepository) RatingStats(ctx context.Context, tourID uuid.UUID) (models.RatingStats, error) {
	var stats models.RatingStats
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE tour_id = $1`,
		tourID,
	).Scan(&stats.Quantity, &stats.Average)
	if err != nil {
		return models.RatingStats{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return stats, nil
}
