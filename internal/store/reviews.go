package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// UnknownAuthorName is shown when a review or comment author can no
// longer be resolved, instead of failing the whole listing.
const UnknownAuthorName = "unknown user"

type Review struct {
	ID              int64     `json:"id"`
	FieldID         string    `json:"field_id"`
	UserID          int64     `json:"user_id"`
	Content         string    `json:"content"`
	Rating          int       `json:"rating"` // 1-5
	GrassType       *string   `json:"grass_type,omitempty"`
	GrassConditions []string  `json:"grass_conditions,omitempty"`
	RecommendedShoe *string   `json:"recommended_shoe,omitempty"`
	ShoeLink        *string   `json:"shoe_link,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Joined fields
	UserName string `json:"user_name,omitempty"`
}

type ReviewsStore struct {
	db DBTX
}

// grass_conditions lives in the database as a JSON text column; the
// encoded form never leaves this file.
func encodeGrassConditions(tags []string) (*string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encoding grass conditions: %w", err)
	}
	s := string(raw)
	return &s, nil
}

func decodeGrassConditions(raw *string) ([]string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(*raw), &tags); err != nil {
		return nil, fmt.Errorf("decoding grass conditions: %w", err)
	}
	return tags, nil
}

func (s *ReviewsStore) Create(ctx context.Context, review *Review) error {
	query := `
	  INSERT INTO reviews (field_id, user_id, content, rating, grass_type, grass_conditions, recommended_shoe, shoe_link)
	  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	  RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	conditions, err := encodeGrassConditions(review.GrassConditions)
	if err != nil {
		return err
	}

	return s.db.QueryRow(
		ctx, query,
		review.FieldID,
		review.UserID,
		review.Content,
		review.Rating,
		review.GrassType,
		conditions,
		review.RecommendedShoe,
		review.ShoeLink,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
}

func (s *ReviewsStore) GetByID(ctx context.Context, reviewID int64) (*Review, error) {
	query := `
	  SELECT id, field_id, user_id, content, rating, grass_type, grass_conditions, recommended_shoe, shoe_link, created_at, updated_at
	  FROM reviews
	  WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	review := &Review{}
	var conditions *string

	err := s.db.QueryRow(ctx, query, reviewID).Scan(
		&review.ID,
		&review.FieldID,
		&review.UserID,
		&review.Content,
		&review.Rating,
		&review.GrassType,
		&conditions,
		&review.RecommendedShoe,
		&review.ShoeLink,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if review.GrassConditions, err = decodeGrassConditions(conditions); err != nil {
		return nil, err
	}
	return review, nil
}

// ListByField pages newest-first with a keyset cursor; pass lastID 0
// for the first page. Author names are resolved in the same query so a
// page of reviews costs one round trip.
func (s *ReviewsStore) ListByField(ctx context.Context, fieldID string, lastID, limit int64) ([]Review, error) {
	query := `
	  SELECT r.id, r.field_id, r.user_id, r.content, r.rating, r.grass_type, r.grass_conditions,
	         r.recommended_shoe, r.shoe_link, r.created_at, r.updated_at,
	         COALESCE(u.name, '` + UnknownAuthorName + `') AS user_name
	  FROM reviews r
	  LEFT JOIN users u ON u.id = r.user_id
	  WHERE r.field_id = $1 AND ($2 = 0 OR r.id < $2)
	  ORDER BY r.id DESC
	  LIMIT $3
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, fieldID, lastID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		var conditions *string
		err := rows.Scan(
			&review.ID,
			&review.FieldID,
			&review.UserID,
			&review.Content,
			&review.Rating,
			&review.GrassType,
			&conditions,
			&review.RecommendedShoe,
			&review.ShoeLink,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.UserName,
		)
		if err != nil {
			return nil, err
		}
		if review.GrassConditions, err = decodeGrassConditions(conditions); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// GetRatingsByField returns every rating currently attached to the
// field. The recompute deliberately re-reads the full set instead of
// keeping a running sum.
func (s *ReviewsStore) GetRatingsByField(ctx context.Context, fieldID string) ([]int, error) {
	query := `
	  SELECT rating FROM reviews WHERE field_id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

func (s *ReviewsStore) Update(ctx context.Context, review *Review) error {
	query := `
	  UPDATE reviews
	  SET content = $1, rating = $2, grass_type = $3, grass_conditions = $4,
	      recommended_shoe = $5, shoe_link = $6, updated_at = NOW()
	  WHERE id = $7
	  RETURNING updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	conditions, err := encodeGrassConditions(review.GrassConditions)
	if err != nil {
		return err
	}

	err = s.db.QueryRow(
		ctx, query,
		review.Content,
		review.Rating,
		review.GrassType,
		conditions,
		review.RecommendedShoe,
		review.ShoeLink,
		review.ID,
	).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *ReviewsStore) Delete(ctx context.Context, reviewID int64) error {
	query := `
	  DELETE FROM reviews WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, reviewID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
