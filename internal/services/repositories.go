package services

import (
	"context"
	"time"

	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/google/uuid"
)

// UserRepository persists users. Every read skips deactivated users.
type UserRepository interface {
	Find(ctx context.Context, q *query.Query) ([]*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error)
	FindProfiles(ctx context.Context, ids []uuid.UUID) ([]*models.Profile, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TourRepository persists tours. List and aggregate reads skip secret tours.
type TourRepository interface {
	Find(ctx context.Context, q *query.Query) ([]*models.Tour, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tour, error)
	Create(ctx context.Context, tour *models.Tour) (*models.Tour, error)
	Update(ctx context.Context, tour *models.Tour) (*models.Tour, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateRatings(ctx context.Context, id uuid.UUID, stats models.RatingStats) error
	Stats(ctx context.Context, minRating float64) ([]*models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlan, error)
	Within(ctx context.Context, lat, lng, radius float64) ([]*models.Tour, error)
	Distances(ctx context.Context, lat, lng, multiplier float64) ([]*models.TourDistance, error)
}

// ReviewRepository persists reviews
type ReviewRepository interface {
	Find(ctx context.Context, q *query.Query) ([]*models.Review, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) (*models.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RatingStats(ctx context.Context, tourID uuid.UUID) (models.RatingStats, error)
}
