package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type FieldStatus string

const (
	FieldStatusPendingApproval FieldStatus = "PENDING_APPROVAL"
	FieldStatusApproved        FieldStatus = "APPROVED"
)

// Field is a soccer pitch. Rating is derived from the field's reviews
// and is only ever written by the rating recompute; status starts as
// PENDING_APPROVAL and only an admin flips it to APPROVED.
type Field struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Address         string      `json:"address"`
	Lat             float64     `json:"lat"`
	Lng             float64     `json:"lng"`
	ImageURL        *string     `json:"image_url,omitempty"`
	GrassType       string      `json:"grass_type"`
	RecommendedShoe string      `json:"recommended_shoe"`
	Rating          float64     `json:"rating"`
	Status          FieldStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type FieldsStore struct {
	db DBTX
}

func (s *FieldsStore) Create(ctx context.Context, field *Field) error {
	query := `
	  INSERT INTO fields (id, name, address, lat, lng, image_url, grass_type, recommended_shoe, status)
	  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	  RETURNING rating, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	field.ID = uuid.New().String()
	field.Status = FieldStatusPendingApproval

	return s.db.QueryRow(
		ctx, query,
		field.ID,
		field.Name,
		field.Address,
		field.Lat,
		field.Lng,
		field.ImageURL,
		field.GrassType,
		field.RecommendedShoe,
		field.Status,
	).Scan(&field.Rating, &field.CreatedAt, &field.UpdatedAt)
}

func (s *FieldsStore) GetByID(ctx context.Context, fieldID string) (*Field, error) {
	query := `
	  SELECT id, name, address, lat, lng, image_url, grass_type, recommended_shoe, rating, status, created_at, updated_at
	  FROM fields
	  WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	field := &Field{}

	err := s.db.QueryRow(ctx, query, fieldID).Scan(
		&field.ID,
		&field.Name,
		&field.Address,
		&field.Lat,
		&field.Lng,
		&field.ImageURL,
		&field.GrassType,
		&field.RecommendedShoe,
		&field.Rating,
		&field.Status,
		&field.CreatedAt,
		&field.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return field, nil
}

func (s *FieldsStore) ListApproved(ctx context.Context) ([]Field, error) {
	query := `
	  SELECT id, name, address, lat, lng, image_url, grass_type, recommended_shoe, rating, status, created_at, updated_at
	  FROM fields
	  WHERE status = $1
	  ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, FieldStatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFields(rows)
}

func (s *FieldsStore) Search(ctx context.Context, keyword string) ([]Field, error) {
	query := `
	  SELECT id, name, address, lat, lng, image_url, grass_type, recommended_shoe, rating, status, created_at, updated_at
	  FROM fields
	  WHERE status = $1 AND (name ILIKE '%' || $2 || '%' OR address ILIKE '%' || $2 || '%')
	  ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, FieldStatusApproved, keyword)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFields(rows)
}

func scanFields(rows pgx.Rows) ([]Field, error) {
	var fields []Field
	for rows.Next() {
		var field Field
		err := rows.Scan(
			&field.ID,
			&field.Name,
			&field.Address,
			&field.Lat,
			&field.Lng,
			&field.ImageURL,
			&field.GrassType,
			&field.RecommendedShoe,
			&field.Rating,
			&field.Status,
			&field.CreatedAt,
			&field.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, rows.Err()
}

func (s *FieldsStore) Approve(ctx context.Context, fieldID string) error {
	query := `
	  UPDATE fields SET status = $1, updated_at = NOW() WHERE id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, FieldStatusApproved, fieldID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRating writes the derived average rating. Nothing else in the
// codebase is allowed to touch fields.rating.
func (s *FieldsStore) UpdateRating(ctx context.Context, fieldID string, rating float64) error {
	query := `
	  UPDATE fields SET rating = $1, updated_at = NOW() WHERE id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, rating, fieldID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
