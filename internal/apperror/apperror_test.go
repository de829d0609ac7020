package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		operational bool
	}{
		{
			name:        "operational passes through",
			err:         Forbidden("You do not have permission to perform this action"),
			wantStatus:  http.StatusForbidden,
			wantMessage: "You do not have permission to perform this action",
			operational: true,
		},
		{
			name:        "validation",
			err:         fmt.Errorf("create tour: %w", &models.ValidationError{Fields: []models.FieldError{{Field: "name", Message: "A tour must have a name"}}}),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid input data. A tour must have a name",
			operational: true,
		},
		{
			name:        "malformed id",
			err:         &CastError{Field: "id", Value: "abc"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid id: abc",
			operational: true,
		},
		{
			name:        "query parameter",
			err:         &query.Error{Param: "sort", Message: "unknown field \"x\""},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "invalid query parameter sort: unknown field \"x\"",
			operational: true,
		},
		{
			name:        "not found",
			err:         fmt.Errorf("get tour: %w", ErrNotFound),
			wantStatus:  http.StatusNotFound,
			wantMessage: "No document found with that ID",
			operational: true,
		},
		{
			name: "duplicate key",
			err: fmt.Errorf("insert: %w", &pgconn.PgError{
				Code:           "23505",
				ConstraintName: "tours_name_key",
				Detail:         "Key (name)=(The Forest Hiker) already exists.",
			}),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Duplicate field value: The Forest Hiker. Please use another value!",
			operational: true,
		},
		{
			name:        "expired token",
			err:         fmt.Errorf("validate: %w", jwt.ErrTokenExpired),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Your token has expired! Please log in again.",
			operational: true,
		},
		{
			name:        "bad signature",
			err:         fmt.Errorf("validate: %w", jwt.ErrTokenSignatureInvalid),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid token. Please log in again!",
			operational: true,
		},
		{
			name:        "unclassified",
			err:         errors.New("connection reset by peer"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Something went wrong!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.Equal(t, tt.operational, got.Operational)
		})
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "fail", BadRequest("x").Status())
	assert.Equal(t, "fail", NotFound("x").Status())
	assert.Equal(t, "error", New(http.StatusInternalServerError, "x").Status())
}
