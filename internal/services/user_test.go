package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createUser(t *testing.T, s *UserService, name, email string) *models.User {
	t.Helper()
	user := models.NewUser()
	user.Name = name
	user.Email = email
	user.PasswordHash = "$2a$04$hash"
	created, err := s.Create(context.Background(), user)
	require.NoError(t, err)
	return created
}

func TestUserCreateRequiresPassword(t *testing.T) {
	s := NewUserService(newFakeUsers(), zap.NewNop())

	user := models.NewUser()
	user.Name = "No Password"
	user.Email = "np@example.com"

	_, err := s.Create(context.Background(), user)
	assert.Equal(t, http.StatusBadRequest, apperror.Translate(err).StatusCode)
}

func TestDeactivatedUsersAreHidden(t *testing.T) {
	users := newFakeUsers()
	s := NewUserService(users, zap.NewNop())
	ctx := context.Background()

	ann := createUser(t, s, "Ann", "ann@example.com")
	bob := createUser(t, s, "Bob", "bob@example.com")

	require.NoError(t, s.Deactivate(ctx, bob.ID))

	list, err := s.List(ctx, query.New())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ann.ID, list[0].ID)

	_, err = s.Get(ctx, bob.ID, false)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.False(t, users.raw(bob.ID).Active, "deactivation keeps the record")
}

func TestUpdateMe(t *testing.T) {
	s := NewUserService(newFakeUsers(), zap.NewNop())
	ctx := context.Background()
	ann := createUser(t, s, "Ann", "ann@example.com")

	name := "Ann Smith"
	email := "ANN.SMITH@example.com"

	tests := []struct {
		name       string
		req        models.ProfileUpdate
		wantStatus int
	}{
		{name: "password rejected", req: models.ProfileUpdate{Name: &name, Password: "newpass99"}, wantStatus: http.StatusBadRequest},
		{name: "confirmation rejected", req: models.ProfileUpdate{PasswordConfirm: "newpass99"}, wantStatus: http.StatusBadRequest},
		{name: "profile fields", req: models.ProfileUpdate{Name: &name, Email: &email}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.UpdateMe(ctx, ann.ID, &tt.req)
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, apperror.Translate(err).StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ann Smith", got.Name)
			assert.Equal(t, "ann.smith@example.com", got.Email)
			assert.Equal(t, models.RoleUser, got.Role)
		})
	}
}

func TestDeletingReviewerKeepsTourRatings(t *testing.T) {
	reviewsSvc, tours, tour := newTestReviews(t)
	users := NewUserService(newFakeUsers(), zap.NewNop())
	ctx := context.Background()

	ann := createUser(t, users, "Ann", "ann@example.com")
	bob := createUser(t, users, "Bob", "bob@example.com")

	_, err := reviewsSvc.Create(ctx, &models.Review{Review: "Loved it", Rating: 5, TourID: tour.ID, UserID: ann.ID})
	require.NoError(t, err)
	_, err = reviewsSvc.Create(ctx, &models.Review{Review: "Too long", Rating: 1, TourID: tour.ID, UserID: bob.ID})
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, bob.ID))

	listed, err := reviewsSvc.List(ctx, query.New().Where("r.tour_id", query.OpEq, tour.ID))
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	stats, err := reviewsSvc.reviews.RatingStats(ctx, tour.ID)
	require.NoError(t, err)
	avg, qty := ratingsOf(t, tours, tour.ID)
	assert.Equal(t, stats.Quantity, qty)
	assert.Equal(t, stats.Average, avg)
	assert.Equal(t, 3.0, avg)
}
