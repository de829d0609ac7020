package api

import (
	"context"

	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/denzelpenzel/tours/internal/services"
	"github.com/google/uuid"
)

// Service is the CRUD surface the generic resource handlers need
type Service[T any] interface {
	List(ctx context.Context, q *query.Query) ([]*T, error)
	Get(ctx context.Context, id uuid.UUID, expand bool) (*T, error)
	Create(ctx context.Context, v *T) (*T, error)
	Update(ctx context.Context, v *T) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuthService issues and checks sessions
type AuthService interface {
	SignUp(ctx context.Context, req *models.SignUp) (*models.User, string, error)
	SignIn(ctx context.Context, req *models.SignIn) (*models.User, string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Authorize(user *models.User, roles ...models.Role) error
	ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error
	ResetPassword(ctx context.Context, token string, pw *models.Password) (*models.User, string, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, req *models.PasswordUpdate) (*models.User, string, error)
}

// UserService manages accounts
type UserService interface {
	Service[models.User]
	UpdateMe(ctx context.Context, id uuid.UUID, req *models.ProfileUpdate) (*models.User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// TourService manages tours and their aggregates
type TourService interface {
	Service[models.Tour]
	Stats(ctx context.Context) ([]*models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlan, error)
	Within(ctx context.Context, distance, lat, lng float64, unit services.Unit) ([]*models.Tour, error)
	Distances(ctx context.Context, lat, lng float64, unit services.Unit) ([]*models.TourDistance, error)
}

// ReviewService manages reviews
type ReviewService interface {
	Service[models.Review]
}
