package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// In-memory repositories. Records are copied in and out so callers never
// share state with the store, as with a real database.

type fakeUsers struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: map[uuid.UUID]models.User{}}
}

func (r *fakeUsers) Find(_ context.Context, _ *query.Query) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.rows {
		if u.Active {
			u := u
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok || !u.Active {
		return nil, apperror.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Active && u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (r *fakeUsers) FindByResetToken(_ context.Context, hashed string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Active && hashed != "" && u.PasswordResetToken == hashed &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			return &u, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (r *fakeUsers) FindProfiles(_ context.Context, ids []uuid.UUID) ([]*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Profile
	for _, id := range ids {
		if u, ok := r.rows[id]; ok && u.Active {
			out = append(out, &models.Profile{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo, Role: u.Role})
		}
	}
	return out, nil
}

func (r *fakeUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == user.Email {
			return nil, &pgconn.PgError{
				Code:           "23505",
				ConstraintName: "users_email_key",
				Detail:         "Key (email)=(" + user.Email + ") already exists.",
			}
		}
	}
	u := *user
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	r.rows[u.ID] = u
	return &u, nil
}

func (r *fakeUsers) Update(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[user.ID]; !ok {
		return nil, apperror.ErrNotFound
	}
	u := *user
	u.Version++
	r.rows[u.ID] = u
	return &u, nil
}

func (r *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// raw returns a stored user regardless of its active flag
func (r *fakeUsers) raw(id uuid.UUID) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

type fakeTours struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.Tour

	radius     float64
	multiplier float64
}

func newFakeTours() *fakeTours {
	return &fakeTours{rows: map[uuid.UUID]models.Tour{}}
}

func (r *fakeTours) Find(_ context.Context, _ *query.Query) ([]*models.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tour
	for _, t := range r.rows {
		if !t.SecretTour {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}

func (r *fakeTours) FindByID(_ context.Context, id uuid.UUID) (*models.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &t, nil
}

func (r *fakeTours) Create(_ context.Context, tour *models.Tour) (*models.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := *tour
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	r.rows[t.ID] = t
	return &t, nil
}

func (r *fakeTours) Update(_ context.Context, tour *models.Tour) (*models.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[tour.ID]; !ok {
		return nil, apperror.ErrNotFound
	}
	t := *tour
	t.Version++
	r.rows[t.ID] = t
	return &t, nil
}

func (r *fakeTours) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeTours) UpdateRatings(_ context.Context, id uuid.UUID, stats models.RatingStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return apperror.ErrNotFound
	}
	t.RatingsAverage = stats.Average
	t.RatingsQuantity = stats.Quantity
	r.rows[id] = t
	return nil
}

func (r *fakeTours) Stats(_ context.Context, _ float64) ([]*models.TourStats, error) {
	return nil, nil
}

func (r *fakeTours) MonthlyPlan(_ context.Context, _ int) ([]*models.MonthlyPlan, error) {
	return nil, nil
}

func (r *fakeTours) Within(_ context.Context, _, _, radius float64) ([]*models.Tour, error) {
	r.radius = radius
	return nil, nil
}

func (r *fakeTours) Distances(_ context.Context, _, _, multiplier float64) ([]*models.TourDistance, error) {
	r.multiplier = multiplier
	return nil, nil
}

type fakeReviews struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.Review
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{rows: map[uuid.UUID]models.Review{}}
}

// Find honours equality conditions on the tour column only
func (r *fakeReviews) Find(_ context.Context, q *query.Query) ([]*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tourID *uuid.UUID
	for _, c := range q.Conditions {
		if c.Column == "r.tour_id" && len(c.Values) == 1 {
			if id, ok := c.Values[0].(uuid.UUID); ok {
				tourID = &id
			}
		}
	}
	var out []*models.Review
	for _, rv := range r.rows {
		if tourID != nil && rv.TourID != *tourID {
			continue
		}
		rv := rv
		out = append(out, &rv)
	}
	return out, nil
}

func (r *fakeReviews) FindByID(_ context.Context, id uuid.UUID) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.rows[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &rv, nil
}

func (r *fakeReviews) Create(_ context.Context, review *models.Review) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.rows {
		if rv.TourID == review.TourID && rv.UserID == review.UserID {
			return nil, &pgconn.PgError{Code: "23505", Detail: "Key (tour_id, user_id)=(x, y) already exists."}
		}
	}
	rv := *review
	rv.ID = uuid.New()
	rv.CreatedAt = time.Now()
	r.rows[rv.ID] = rv
	return &rv, nil
}

func (r *fakeReviews) Update(_ context.Context, review *models.Review) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[review.ID]; !ok {
		return nil, apperror.ErrNotFound
	}
	rv := *review
	rv.Version++
	r.rows[rv.ID] = rv
	return &rv, nil
}

func (r *fakeReviews) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeReviews) RatingStats(_ context.Context, tourID uuid.UUID) (models.RatingStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats models.RatingStats
	var sum float64
	for _, rv := range r.rows {
		if rv.TourID == tourID {
			stats.Quantity++
			sum += rv.Rating
		}
	}
	if stats.Quantity > 0 {
		stats.Average = sum / float64(stats.Quantity)
	}
	return stats, nil
}

type fakeMailer struct {
	err  error
	sent []Message
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var errSMTPDown = errors.New("dial tcp: connection refused")
