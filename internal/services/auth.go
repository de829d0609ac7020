package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetTokenBytes = 32
	resetTokenTTL   = 10 * time.Minute

	// passwordChangeSkew backdates the change stamp so a token issued in
	// the same second as the change stays valid.
	passwordChangeSkew = time.Second
)

// AuthOptions configures token issuance and hashing
type AuthOptions struct {
	Secret     string
	ExpiresIn  time.Duration
	BCryptCost int
}

// AuthService handles authentication and authorization
type AuthService struct {
	users      UserRepository
	mailer     Mailer
	jwtSecret  []byte
	expiresIn  time.Duration
	bcryptCost int
	now        func() time.Time
	logger     *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserRepository, mailer Mailer, opts AuthOptions, logger *zap.Logger) *AuthService {
	cost := opts.BCryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		mailer:     mailer,
		jwtSecret:  []byte(opts.Secret),
		expiresIn:  opts.ExpiresIn,
		bcryptCost: cost,
		now:        time.Now,
		logger:     logger,
	}
}

// Claims represents JWT claims; the subject is the user ID
type Claims struct {
	UserID uuid.UUID `json:"id"`
	jwt.RegisteredClaims
}

// GenerateToken generates a signed session token for a user
func (s *AuthService) GenerateToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		s.logger.Error("Failed to sign JWT token", zap.Error(err))
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken checks signature and expiry and returns the claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuedAt(), jwt.WithExpirationRequired())

	if err != nil {
		s.logger.Debug("Invalid JWT token", zap.Error(err))
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token claims: %w", jwt.ErrTokenInvalidClaims)
}

// HashPassword hashes a password using bcrypt
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword verifies a password against its hash
func (s *AuthService) VerifyPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("invalid password")
	}
	return nil
}

// SignUp creates a user with the default role and returns it with a token
func (s *AuthService) SignUp(ctx context.Context, req *models.SignUp) (*models.User, string, error) {
	if err := req.Password.Validate(); err != nil {
		return nil, "", err
	}

	user := models.NewUser()
	user.Name = req.Name
	user.Email = req.Email
	user.Photo = req.Photo
	user.Normalize()
	if err := user.Validate(); err != nil {
		return nil, "", err
	}

	hash, err := s.HashPassword(req.Password.Password)
	if err != nil {
		return nil, "", err
	}
	user.PasswordHash = hash

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.GenerateToken(created.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User signed up", zap.String("user_id", created.ID.String()))
	return created, token, nil
}

// SignIn checks the credentials and returns the user with a token. The same
// error is returned whether the email or the password is wrong.
func (s *AuthService) SignIn(ctx context.Context, req *models.SignIn) (*models.User, string, error) {
	if req.Email == "" || req.Password == "" {
		return nil, "", apperror.BadRequest("Please provide email and password!")
	}

	invalid := apperror.Unauthorized("Incorrect email or password")

	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, "", invalid
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		return nil, "", invalid
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Authenticate resolves the user of a session token. It fails when the
// token is invalid, the user is gone or deactivated, or the password was
// changed after the token was issued.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	if tokenString == "" {
		return nil, apperror.Unauthorized("You are not logged in! Please log in to get access.")
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("The user belonging to this token does no longer exist.")
		}
		return nil, fmt.Errorf("failed to resolve token user: %w", err)
	}

	if user.ChangedPasswordAfter(claims.IssuedAt.Unix()) {
		return nil, apperror.Unauthorized("User recently changed password! Please log in again.")
	}

	return user, nil
}

// Authorize fails unless the user holds one of roles
func (s *AuthService) Authorize(user *models.User, roles ...models.Role) error {
	if user == nil {
		return apperror.Unauthorized("You are not logged in! Please log in to get access.")
	}
	for _, r := range roles {
		if user.Role == r {
			return nil
		}
	}
	return apperror.Forbidden("You do not have permission to perform this action")
}

// ForgotPassword stores the hash of a fresh reset token and mails the token
// itself. resetURL builds the link embedded in the mail. When the mail
// cannot be sent the stored token is cleared again.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound("There is no user with that email address.")
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, hashed, err := newResetToken()
	if err != nil {
		return err
	}
	expires := s.now().Add(resetTokenTTL)
	user.PasswordResetToken = hashed
	user.PasswordResetExpires = &expires

	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	msg := Message{
		To:      user.Email,
		Subject: "Your password reset token (valid for 10 min)",
		Text: fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s.\n"+
			"If you didn't forget your password, please ignore this email!", resetURL(token)),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to send password reset email", zap.Error(err), zap.String("user_id", user.ID.String()))

		user.PasswordResetToken = ""
		user.PasswordResetExpires = nil
		if _, rerr := s.users.Update(ctx, user); rerr != nil {
			s.logger.Error("Failed to clear reset token", zap.Error(rerr), zap.String("user_id", user.ID.String()))
		}
		return &apperror.AppError{
			StatusCode:  500,
			Message:     "There was an error sending the email. Try again later!",
			Operational: true,
			Cause:       err,
		}
	}

	return nil
}

// ResetPassword sets a new password for the holder of an unexpired reset
// token and returns a fresh session token.
func (s *AuthService) ResetPassword(ctx context.Context, token string, pw *models.Password) (*models.User, string, error) {
	user, err := s.users.FindByResetToken(ctx, hashResetToken(token), s.now())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, "", apperror.BadRequest("Token is invalid or has expired")
		}
		return nil, "", fmt.Errorf("failed to find reset token: %w", err)
	}

	if err := s.setPassword(ctx, user, pw); err != nil {
		return nil, "", err
	}

	return s.issue(user)
}

// UpdatePassword changes the password of a signed-in user after checking
// the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, req *models.PasswordUpdate) (*models.User, string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.VerifyPassword(req.Current, user.PasswordHash); err != nil {
		return nil, "", apperror.Unauthorized("Your current password is wrong.")
	}

	pw := &models.Password{Password: req.NewPassword, PasswordConfirm: req.NewPasswordConfirm}
	if err := s.setPassword(ctx, user, pw); err != nil {
		return nil, "", err
	}

	return s.issue(user)
}

func (s *AuthService) setPassword(ctx context.Context, user *models.User, pw *models.Password) error {
	if err := pw.Validate(); err != nil {
		return err
	}

	hash, err := s.HashPassword(pw.Password)
	if err != nil {
		return err
	}

	changed := s.now().Add(-passwordChangeSkew)
	user.PasswordHash = hash
	user.PasswordChangedAt = &changed
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil

	saved, err := s.users.Update(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to save password: %w", err)
	}
	*user = *saved

	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) issue(user *models.User) (*models.User, string, error) {
	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func newResetToken() (string, string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)
	return token, hashResetToken(token), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
