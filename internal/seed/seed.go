// Package seed loads development data from JSON files into the services.
// Records reference each other through "_id" keys that only live in the
// files; the importer maps them onto the identifiers assigned on create.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/denzelpenzel/tours/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	UsersFile   = "users.json"
	ToursFile   = "tours.json"
	ReviewsFile = "reviews.json"
)

// UserRecord is a user as written in users.json
type UserRecord struct {
	Key      string      `json:"_id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Photo    string      `json:"photo"`
	Role     models.Role `json:"role"`
	Active   *bool       `json:"active"`
	Password string      `json:"password"`
}

// TourRecord is a tour as written in tours.json; guides are user keys
type TourRecord struct {
	models.Tour
	Key    string   `json:"_id"`
	Guides []string `json:"guides"`
}

// ReviewRecord is a review as written in reviews.json
type ReviewRecord struct {
	Review string  `json:"review"`
	Rating float64 `json:"rating"`
	Tour   string  `json:"tour"`
	User   string  `json:"user"`
}

// Data holds the decoded files of one directory
type Data struct {
	Users   []UserRecord
	Tours   []TourRecord
	Reviews []ReviewRecord
}

// Load reads the data files of dir. Missing files are skipped.
func Load(dir string) (*Data, error) {
	data := &Data{}
	for name, dest := range map[string]interface{}{
		UsersFile:   &data.Users,
		ToursFile:   &data.Tours,
		ReviewsFile: &data.Reviews,
	} {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := json.Unmarshal(raw, dest); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
	}
	return data, nil
}

// Creator stores one kind of document
type Creator[T any] interface {
	Create(ctx context.Context, v *T) (*T, error)
}

// Summary counts the created documents
type Summary struct {
	Users   int
	Tours   int
	Reviews int
}

// Importer writes seed data through the regular services so every document
// passes the usual validation and review writes refresh tour ratings.
type Importer struct {
	users   Creator[models.User]
	tours   Creator[models.Tour]
	reviews Creator[models.Review]
	hash    func(password string) (string, error)
	logger  *zap.Logger
}

// NewImporter creates an importer hashing passwords with hash
func NewImporter(
	users Creator[models.User],
	tours Creator[models.Tour],
	reviews Creator[models.Review],
	hash func(password string) (string, error),
	logger *zap.Logger,
) *Importer {
	return &Importer{
		users:   users,
		tours:   tours,
		reviews: reviews,
		hash:    hash,
		logger:  logger,
	}
}

// BcryptHasher hashes passwords at the given cost
func BcryptHasher(cost int) func(string) (string, error) {
	return func(password string) (string, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		return string(hash), nil
	}
}

// Import creates users, then tours, then reviews. It stops at the first
// failing record.
func (im *Importer) Import(ctx context.Context, data *Data) (*Summary, error) {
	keys := map[string]uuid.UUID{}
	summary := &Summary{}

	for _, rec := range data.Users {
		user, err := im.user(rec)
		if err != nil {
			return summary, err
		}
		created, err := im.users.Create(ctx, user)
		if err != nil {
			return summary, fmt.Errorf("user %s: %w", rec.Email, err)
		}
		if rec.Key != "" {
			keys[rec.Key] = created.ID
		}
		summary.Users++
	}

	for _, rec := range data.Tours {
		tour := rec.Tour
		if tour.RatingsAverage == 0 {
			tour.RatingsAverage = models.DefaultRatingsAverage
		}
		tour.Guides = make([]uuid.UUID, 0, len(rec.Guides))
		for _, key := range rec.Guides {
			id, err := resolve(keys, key)
			if err != nil {
				return summary, fmt.Errorf("tour %s: guide: %w", rec.Name, err)
			}
			tour.Guides = append(tour.Guides, id)
		}

		created, err := im.tours.Create(ctx, &tour)
		if err != nil {
			return summary, fmt.Errorf("tour %s: %w", rec.Name, err)
		}
		if rec.Key != "" {
			keys[rec.Key] = created.ID
		}
		summary.Tours++
	}

	for i, rec := range data.Reviews {
		tourID, err := resolve(keys, rec.Tour)
		if err != nil {
			return summary, fmt.Errorf("review %d: tour: %w", i, err)
		}
		userID, err := resolve(keys, rec.User)
		if err != nil {
			return summary, fmt.Errorf("review %d: user: %w", i, err)
		}

		review := &models.Review{Review: rec.Review, Rating: rec.Rating, TourID: tourID, UserID: userID}
		if _, err := im.reviews.Create(ctx, review); err != nil {
			return summary, fmt.Errorf("review %d: %w", i, err)
		}
		summary.Reviews++
	}

	im.logger.Info("Seed data imported",
		zap.Int("users", summary.Users),
		zap.Int("tours", summary.Tours),
		zap.Int("reviews", summary.Reviews))

	return summary, nil
}

func (im *Importer) user(rec UserRecord) (*models.User, error) {
	if rec.Password == "" {
		return nil, fmt.Errorf("user %s: missing password", rec.Email)
	}
	hash, err := im.hash(rec.Password)
	if err != nil {
		return nil, err
	}

	user := models.NewUser()
	user.Name = rec.Name
	user.Email = rec.Email
	user.Photo = rec.Photo
	user.PasswordHash = hash
	if rec.Role != "" {
		user.Role = rec.Role
	}
	if rec.Active != nil {
		user.Active = *rec.Active
	}
	return user, nil
}

// resolve maps a file key onto a created document; literal UUIDs pass
// through unchanged.
func resolve(keys map[string]uuid.UUID, key string) (uuid.UUID, error) {
	if id, ok := keys[key]; ok {
		return id, nil
	}
	if id, err := uuid.Parse(key); err == nil {
		return id, nil
	}
	return uuid.Nil, fmt.Errorf("unknown key %q", key)
}
