package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/denzelpenzel/tours/internal/models"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var tourColumns = []string{
	"id", "name", "duration", "max_group_size", "difficulty",
	"ratings_average", "ratings_quantity", "price", "price_discount",
	"summary", "description", "image_cover", "images", "start_dates",
	"secret_tour", "start_location", "locations", "guides",
	"created_at", "version",
}

const (
	startLng = `(start_location->'coordinates'->>0)::float8`
	startLat = `(start_location->'coordinates'->>1)::float8`

	// angularDistance is the great-circle distance in radians between the
	// start location and ($1 lat, $2 lng).
	angularDistance = `2 * ASIN(SQRT(
		POWER(SIN(RADIANS(` + startLat + ` - $1) / 2), 2) +
		COS(RADIANS($1)) * COS(RADIANS(` + startLat + `)) *
		POWER(SIN(RADIANS(` + startLng + ` - $2) / 2), 2)))`

	earthRadiusMetres = 6378100.0
)

// TourRepository stores tours
type TourRepository struct {
	db     DB
	logger *zap.Logger
}

// NewTourRepository creates a new tour repository
func NewTourRepository(db DB, logger *zap.Logger) *TourRepository {
	return &TourRepository{db: db, logger: logger}
}

func scanTour(row pgx.Row) (*models.Tour, error) {
	t := &models.Tour{}
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Duration,
		&t.MaxGroupSize,
		&t.Difficulty,
		&t.RatingsAverage,
		&t.RatingsQuantity,
		&t.Price,
		&t.PriceDiscount,
		&t.Summary,
		&t.Description,
		&t.ImageCover,
		&t.Images,
		&t.StartDates,
		&t.SecretTour,
		&t.StartLocation,
		&t.Locations,
		&t.Guides,
		&t.CreatedAt,
		&t.Version,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func collectTours(rows pgx.Rows) ([]*models.Tour, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Tour, error) {
		return scanTour(row)
	})
}

// Find returns the public tours matching q
func (r *TourRepository) Find(ctx context.Context, q *query.Query) ([]*models.Tour, error) {
	sql, args := scope(q, "secret_tour", query.OpEq, false).Build("tours", tourColumns)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		r.logger.Error("Failed to query tours", zap.Error(err), zap.String("sql", sql))
		return nil, fmt.Errorf("failed to query tours: %w", err)
	}

	tours, err := collectTours(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan tours: %w", err)
	}
	return tours, nil
}

// FindByID returns a tour, secret or not
func (r *TourRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	sql, args := query.New().Where("id", query.OpEq, id).Build("tours", tourColumns)

	tour, err := scanTour(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, one(err, "get tour")
	}
	return tour, nil
}

// Create inserts a tour. Ratings start from the values on t.
func (r *TourRepository) Create(ctx context.Context, t *models.Tour) (*models.Tour, error) {
	sql := `
		INSERT INTO tours (
			name, duration, max_group_size, difficulty, ratings_average, ratings_quantity,
			price, price_discount, summary, description, image_cover, images, start_dates,
			secret_tour, start_location, locations, guides
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + strings.Join(tourColumns, ", ")

	created, err := scanTour(r.db.QueryRow(ctx, sql,
		t.Name, t.Duration, t.MaxGroupSize, t.Difficulty, t.RatingsAverage, t.RatingsQuantity,
		t.Price, t.PriceDiscount, t.Summary, t.Description, t.ImageCover,
		orEmpty(t.Images), orEmpty(t.StartDates), t.SecretTour,
		t.StartLocation, orEmpty(t.Locations), orEmpty(t.Guides),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert tour: %w", err)
	}
	return created, nil
}

// Update overwrites every stored field of a tour and bumps its version.
// Ratings are owned by UpdateRatings and left alone.
func (r *TourRepository) Update(ctx context.Context, t *models.Tour) (*models.Tour, error) {
	sql := `
		UPDATE tours SET
			name = $2, duration = $3, max_group_size = $4, difficulty = $5,
			price = $6, price_discount = $7, summary = $8, description = $9,
			image_cover = $10, images = $11, start_dates = $12, secret_tour = $13,
			start_location = $14, locations = $15, guides = $16,
			version = version + 1
		WHERE id = $1
		RETURNING ` + strings.Join(tourColumns, ", ")

	updated, err := scanTour(r.db.QueryRow(ctx, sql,
		t.ID, t.Name, t.Duration, t.MaxGroupSize, t.Difficulty,
		t.Price, t.PriceDiscount, t.Summary, t.Description,
		t.ImageCover, orEmpty(t.Images), orEmpty(t.StartDates), t.SecretTour,
		t.StartLocation, orEmpty(t.Locations), orEmpty(t.Guides),
	))
	if err != nil {
		return nil, one(err, "update tour")
	}
	return updated, nil
}

// Delete removes a tour; its reviews cascade
func (r *TourRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "tours", id)
}

// UpdateRatings stores the review aggregate of a tour
func (r *TourRepository) UpdateRatings(ctx context.Context, id uuid.UUID, stats models.RatingStats) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tours SET ratings_average = $2, ratings_quantity = $3 WHERE id = $1`,
		id, stats.Average, stats.Quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to update ratings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return one(pgx.ErrNoRows, "update ratings")
	}
	return nil
}

// Stats groups the public tours rated at least minRating by difficulty,
// cheapest group first
func (r *TourRepository) Stats(ctx context.Context, minRating float64) ([]*models.TourStats, error) {
	sql := `
		SELECT difficulty,
		       COUNT(*),
		       COALESCE(SUM(ratings_quantity), 0),
		       AVG(ratings_average),
		       AVG(price),
		       MIN(price),
		       MAX(price)
		FROM tours
		WHERE ratings_average >= $1 AND secret_tour = false
		GROUP BY difficulty
		ORDER BY AVG(price) ASC
	`

	rows, err := r.db.Query(ctx, sql, minRating)
	if err != nil {
		return nil, fmt.Errorf("failed to query tour stats: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.TourStats, error) {
		s := &models.TourStats{}
		err := row.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice)
		return s, err
	})
}

// MonthlyPlan counts the start dates of public tours per month of year,
// busiest month first
func (r *TourRepository) MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	sql := `
		SELECT EXTRACT(MONTH FROM d)::int AS month,
		       COUNT(*),
		       array_agg(t.name ORDER BY t.name)
		FROM tours t
		CROSS JOIN LATERAL unnest(t.start_dates) AS d
		WHERE t.secret_tour = false AND d >= $1 AND d < $2
		GROUP BY month
		ORDER BY COUNT(*) DESC, month ASC
		LIMIT 12
	`

	rows, err := r.db.Query(ctx, sql, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly plan: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.MonthlyPlan, error) {
		p := &models.MonthlyPlan{}
		err := row.Scan(&p.Month, &p.NumTourStarts, &p.Tours)
		return p, err
	})
}

// Within returns the public tours whose start location lies within radius
// radians of the point
func (r *TourRepository) Within(ctx context.Context, lat, lng, radius float64) ([]*models.Tour, error) {
	sql := `SELECT ` + strings.Join(tourColumns, ", ") + `
		FROM tours
		WHERE secret_tour = false AND ` + angularDistance + ` <= $3
		ORDER BY id`

	rows, err := r.db.Query(ctx, sql, lat, lng, radius)
	if err != nil {
		return nil, fmt.Errorf("failed to query tours within radius: %w", err)
	}

	tours, err := collectTours(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan tours: %w", err)
	}
	return tours, nil
}

// Distances returns the distance of every public tour start from the point
// in metres times multiplier, nearest first
func (r *TourRepository) Distances(ctx context.Context, lat, lng, multiplier float64) ([]*models.TourDistance, error) {
	sql := `
		SELECT id, name, dist
		FROM (
			SELECT id, name, ` + angularDistance + ` * $3 * $4 AS dist
			FROM tours
			WHERE secret_tour = false
		) AS d
		WHERE dist IS NOT NULL
		ORDER BY dist ASC`

	rows, err := r.db.Query(ctx, sql, lat, lng, earthRadiusMetres, multiplier)
	if err != nil {
		return nil, fmt.Errorf("failed to query tour distances: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.TourDistance, error) {
		d := &models.TourDistance{}
		err := row.Scan(&d.ID, &d.Name, &d.Distance)
		return d, err
	})
}
