package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Comment threads are strictly two levels deep: roots (nil parent) and
// direct replies to roots. The guard in the comment handlers rejects
// anything deeper before it reaches this store, and parent_id is never
// written after insert.
type Comment struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"review_id"`
	UserID    int64     `json:"user_id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields
	UserName string `json:"user_name,omitempty"`
}

// IsRoot reports whether the comment is a top-level comment that may
// receive replies.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

type CommentsStore struct {
	db DBTX
}

func (s *CommentsStore) Create(ctx context.Context, comment *Comment) error {
	query := `
	  INSERT INTO comments (review_id, user_id, parent_id, content)
	  VALUES ($1, $2, $3, $4)
	  RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(
		ctx, query,
		comment.ReviewID,
		comment.UserID,
		comment.ParentID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)

	if err != nil {
		// The parent row can disappear between the guard's lookup and
		// this insert; the FK turns that race into a not-found.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *CommentsStore) GetByID(ctx context.Context, commentID int64) (*Comment, error) {
	query := `
	  SELECT id, review_id, user_id, parent_id, content, created_at, updated_at
	  FROM comments
	  WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	comment := &Comment{}

	err := s.db.QueryRow(ctx, query, commentID).Scan(
		&comment.ID,
		&comment.ReviewID,
		&comment.UserID,
		&comment.ParentID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (s *CommentsStore) ListByReview(ctx context.Context, reviewID int64) ([]Comment, error) {
	query := `
	  SELECT c.id, c.review_id, c.user_id, c.parent_id, c.content, c.created_at, c.updated_at,
	         COALESCE(u.name, '` + UnknownAuthorName + `') AS user_name
	  FROM comments c
	  LEFT JOIN users u ON u.id = c.user_id
	  WHERE c.review_id = $1
	  ORDER BY c.created_at ASC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var comment Comment
		err := rows.Scan(
			&comment.ID,
			&comment.ReviewID,
			&comment.UserID,
			&comment.ParentID,
			&comment.Content,
			&comment.CreatedAt,
			&comment.UpdatedAt,
			&comment.UserName,
		)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// UpdateContent mutates content only; a comment can never be
// re-parented or moved to another review.
func (s *CommentsStore) UpdateContent(ctx context.Context, comment *Comment) error {
	query := `
	  UPDATE comments SET content = $1, updated_at = NOW() WHERE id = $2
	  RETURNING updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query, comment.Content, comment.ID).Scan(&comment.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *CommentsStore) Delete(ctx context.Context, commentID int64) error {
	query := `
	  DELETE FROM comments WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, commentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
