// Package apperror classifies errors into client-facing HTTP errors.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned by repositories when no record matches
var ErrNotFound = errors.New("no document found with that ID")

const uniqueViolation = "23505"

// AppError is an error whose message is safe to show to clients
type AppError struct {
	StatusCode int
	Message    string
	// Operational is false for errors that were not anticipated; their
	// message is replaced in production.
	Operational bool
	Cause       error
}

// New creates an operational error
func New(statusCode int, message string) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Operational: true}
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Status is "fail" for client faults and "error" for server faults
func (e *AppError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "fail"
	}
	return "error"
}

// CastError reports an identifier that cannot be parsed
type CastError struct {
	Field string
	Value string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Field, e.Value)
}

// Common operational errors
func BadRequest(message string) *AppError   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *AppError { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *AppError    { return New(http.StatusForbidden, message) }
func NotFound(message string) *AppError     { return New(http.StatusNotFound, message) }

var duplicateKey = regexp.MustCompile(`Key \(([^)]+)\)=\(([^)]*)\)`)

// Translate classifies err. Anything unknown becomes a non-operational 500
// keeping the original error as cause.
func Translate(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return &AppError{StatusCode: http.StatusBadRequest, Message: verr.Error(), Operational: true, Cause: err}
	}

	var qerr *query.Error
	if errors.As(err, &qerr) {
		return &AppError{StatusCode: http.StatusBadRequest, Message: qerr.Error(), Operational: true, Cause: err}
	}

	var cerr *CastError
	if errors.As(err, &cerr) {
		return &AppError{StatusCode: http.StatusBadRequest, Message: cerr.Error(), Operational: true, Cause: err}
	}

	if errors.Is(err, ErrNotFound) {
		return &AppError{StatusCode: http.StatusNotFound, Message: "No document found with that ID", Operational: true, Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		value := pgErr.ConstraintName
		if m := duplicateKey.FindStringSubmatch(pgErr.Detail); m != nil {
			value = m[2]
		}
		return &AppError{
			StatusCode:  http.StatusBadRequest,
			Message:     fmt.Sprintf("Duplicate field value: %s. Please use another value!", value),
			Operational: true,
			Cause:       err,
		}
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return &AppError{StatusCode: http.StatusUnauthorized, Message: "Your token has expired! Please log in again.", Operational: true, Cause: err}
	}
	if isTokenError(err) {
		return &AppError{StatusCode: http.StatusUnauthorized, Message: "Invalid token. Please log in again!", Operational: true, Cause: err}
	}

	return &AppError{StatusCode: http.StatusInternalServerError, Message: "Something went wrong!", Cause: err}
}

func isTokenError(err error) bool {
	for _, target := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenInvalidClaims,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
