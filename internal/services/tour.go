package services

import (
	"context"
	"fmt"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// StatsMinRating limits tour statistics to well rated tours
	StatsMinRating = 4.5

	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1
	metresToMiles    = 0.000621371
	metresToKm       = 0.001
)

// Unit is a distance unit accepted by the geo queries
type Unit string

const (
	UnitMiles      Unit = "mi"
	UnitKilometres Unit = "km"
)

// ParseUnit rejects anything but mi and km
func ParseUnit(raw string) (Unit, error) {
	switch Unit(raw) {
	case UnitMiles, UnitKilometres:
		return Unit(raw), nil
	}
	return "", apperror.BadRequest("Please specify the unit as mi or km.")
}

func (u Unit) earthRadius() float64 {
	if u == UnitMiles {
		return earthRadiusMiles
	}
	return earthRadiusKm
}

func (u Unit) fromMetres() float64 {
	if u == UnitMiles {
		return metresToMiles
	}
	return metresToKm
}

// TourService handles tour-related operations
type TourService struct {
	tours   TourRepository
	reviews ReviewRepository
	users   UserRepository
	logger  *zap.Logger
}

// NewTourService creates a new tour service
func NewTourService(tours TourRepository, reviews ReviewRepository, users UserRepository, logger *zap.Logger) *TourService {
	return &TourService{
		tours:   tours,
		reviews: reviews,
		users:   users,
		logger:  logger,
	}
}

// List returns the public tours matching q
func (s *TourService) List(ctx context.Context, q *query.Query) ([]*models.Tour, error) {
	tours, err := s.tours.Find(ctx, q)
	if err != nil {
		s.logger.Error("Failed to list tours", zap.Error(err))
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}

	s.logger.Debug("Retrieved tours", zap.Int("count", len(tours)))
	return tours, nil
}

// Get returns a tour by ID. With expand set the reviews and the guide
// profiles are loaded too.
func (s *TourService) Get(ctx context.Context, id uuid.UUID, expand bool) (*models.Tour, error) {
	tour, err := s.tours.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}
	if !expand {
		return tour, nil
	}

	q := query.New().Where("r.tour_id", query.OpEq, tour.ID)
	q.Sort = []query.SortField{{Field: "createdAt", Column: "r.created_at"}}
	reviews, err := s.reviews.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load tour reviews: %w", err)
	}
	tour.Reviews = reviews

	if len(tour.Guides) > 0 {
		guides, err := s.users.FindProfiles(ctx, tour.Guides)
		if err != nil {
			return nil, fmt.Errorf("failed to load tour guides: %w", err)
		}
		tour.GuideProfiles = guides
	}

	return tour, nil
}

// Create validates and stores a tour
func (s *TourService) Create(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	tour.Normalize()
	if err := tour.Validate(); err != nil {
		return nil, err
	}

	created, err := s.tours.Create(ctx, tour)
	if err != nil {
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}

	s.logger.Info("Tour created", zap.String("tour_id", created.ID.String()), zap.String("name", created.Name))
	return created, nil
}

// Update validates the merged tour and saves it
func (s *TourService) Update(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	tour.Normalize()
	if err := tour.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.tours.Update(ctx, tour)
	if err != nil {
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}
	return updated, nil
}

// Delete removes a tour together with its reviews
func (s *TourService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.tours.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	s.logger.Info("Tour deleted", zap.String("tour_id", id.String()))
	return nil
}

// Stats groups the well rated public tours by difficulty
func (s *TourService) Stats(ctx context.Context) ([]*models.TourStats, error) {
	stats, err := s.tours.Stats(ctx, StatsMinRating)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tour stats: %w", err)
	}
	return stats, nil
}

// MonthlyPlan counts the tour starts of every month of year
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlan, error) {
	if year < 1 || year > 9999 {
		return nil, apperror.BadRequest(fmt.Sprintf("Invalid year: %d", year))
	}

	plan, err := s.tours.MonthlyPlan(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly plan: %w", err)
	}
	return plan, nil
}

// Within returns the public tours starting within distance of a point
func (s *TourService) Within(ctx context.Context, distance, lat, lng float64, unit Unit) ([]*models.Tour, error) {
	if distance <= 0 {
		return nil, apperror.BadRequest("Please provide a positive distance.")
	}
	if err := checkPoint(lat, lng); err != nil {
		return nil, err
	}

	radius := distance / unit.earthRadius()
	tours, err := s.tours.Within(ctx, lat, lng, radius)
	if err != nil {
		return nil, fmt.Errorf("failed to find tours within radius: %w", err)
	}
	return tours, nil
}

// Distances returns the distance from a point to every public tour start,
// nearest first
func (s *TourService) Distances(ctx context.Context, lat, lng float64, unit Unit) ([]*models.TourDistance, error) {
	if err := checkPoint(lat, lng); err != nil {
		return nil, err
	}

	distances, err := s.tours.Distances(ctx, lat, lng, unit.fromMetres())
	if err != nil {
		return nil, fmt.Errorf("failed to compute distances: %w", err)
	}
	return distances, nil
}

func checkPoint(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apperror.BadRequest("Please provide latitude and longitude in the format lat,lng.")
	}
	return nil
}
