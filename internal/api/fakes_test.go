package api

import (
	"context"
	"sync"
	"time"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/denzelpenzel/tours/internal/services"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// memUsers backs the real auth and user services
type memUsers struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{rows: map[uuid.UUID]models.User{}}
}

func (r *memUsers) Find(_ context.Context, _ *query.Query) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.rows {
		if u.Active {
			u := u
			out = append(out, &u)
		}
	}
	return out, nil
}

func (r *memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok || !u.Active {
		return nil, apperror.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Active && u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (r *memUsers) FindByResetToken(_ context.Context, hashed string, now time.Time) (*models.User, error) {
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

func (r *memUsers) FindProfiles(_ context.Context, _ []uuid.UUID) ([]*models.Profile, error) {
	return nil, nil
}

func (r *memUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Email == user.Email {
			return nil, &pgconn.PgError{Code: "23505", Detail: "Key (email)=(" + user.Email + ") already exists."}
		}
	}
	u := *user
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	r.rows[u.ID] = u
	return &u, nil
}

func (r *memUsers) Update(_ context.Context, user *models.User) (*models.User, error) {
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

func (r *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memUsers) setRole(id uuid.UUID, role models.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.rows[id]
	u.Role = role
	r.rows[id] = u
}

// stubTours serves tours from insertion order and records what the
// handlers asked for
type stubTours struct {
	mu    sync.Mutex
	order []uuid.UUID
	rows  map[uuid.UUID]models.Tour

	lastQuery  *query.Query
	updated    *models.Tour
	withinArgs []float64
	unit       services.Unit
	statsErr   error
}

func newStubTours() *stubTours {
	return &stubTours{rows: map[uuid.UUID]models.Tour{}}
}

func (s *stubTours) add(t models.Tour) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	s.order = append(s.order, t.ID)
	s.rows[t.ID] = t
	return t.ID
}

func (s *stubTours) List(_ context.Context, q *query.Query) ([]*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuery = q

	var out []*models.Tour
	for _, id := range s.order {
		if t, ok := s.rows[id]; ok {
			t := t
			out = append(out, &t)
		}
	}
	if q.Offset >= len(out) {
		return nil, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *stubTours) Get(_ context.Context, id uuid.UUID, _ bool) (*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &t, nil
}

func (s *stubTours) Create(_ context.Context, tour *models.Tour) (*models.Tour, error) {
	tour.Normalize()
	if err := tour.Validate(); err != nil {
		return nil, err
	}
	tour.ID = s.add(*tour)
	return tour, nil
}

func (s *stubTours) Update(_ context.Context, tour *models.Tour) (*models.Tour, error) {
	tour.Normalize()
	if err := tour.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[tour.ID]; !ok {
		return nil, apperror.ErrNotFound
	}
	tour.Version++
	s.rows[tour.ID] = *tour
	s.updated = tour
	return tour, nil
}

func (s *stubTours) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *stubTours) Stats(_ context.Context) ([]*models.TourStats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return []*models.TourStats{{Difficulty: models.DifficultyEasy, NumTours: 2}}, nil
}

func (s *stubTours) MonthlyPlan(_ context.Context, year int) ([]*models.MonthlyPlan, error) {
	return []*models.MonthlyPlan{{Month: 7, NumTourStarts: 1, Tours: []string{"The Sea Explorer"}}}, nil
}

func (s *stubTours) Within(_ context.Context, distance, lat, lng float64, unit services.Unit) ([]*models.Tour, error) {
	s.withinArgs = []float64{distance, lat, lng}
	s.unit = unit
	return nil, nil
}

func (s *stubTours) Distances(_ context.Context, lat, lng float64, unit services.Unit) ([]*models.TourDistance, error) {
	s.unit = unit
	return []*models.TourDistance{{ID: uuid.New(), Name: "The Forest Hiker", Distance: 12.5}}, nil
}

// stubReviews records the documents handed to it
type stubReviews struct {
	mu        sync.Mutex
	created   []*models.Review
	lastQuery *query.Query
}

func (s *stubReviews) List(_ context.Context, q *query.Query) ([]*models.Review, error) {
	s.lastQuery = q
	return nil, nil
}

func (s *stubReviews) Get(_ context.Context, _ uuid.UUID, _ bool) (*models.Review, error) {
	return nil, apperror.ErrNotFound
}

func (s *stubReviews) Create(_ context.Context, review *models.Review) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	review.Normalize()
	if err := review.Validate(); err != nil {
		return nil, err
	}
	review.ID = uuid.New()
	s.created = append(s.created, review)
	return review, nil
}

func (s *stubReviews) Update(_ context.Context, review *models.Review) (*models.Review, error) {
	return review, nil
}

func (s *stubReviews) Delete(_ context.Context, _ uuid.UUID) error {
	return nil
}

type nopMailer struct{}

func (nopMailer) Send(_ context.Context, _ services.Message) error { return nil }
