package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// repository code can run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Storage struct {
	pool *pgxpool.Pool

	Users interface {
		Create(context.Context, *User) error
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
	}
	Fields interface {
		Create(context.Context, *Field) error
		GetByID(context.Context, string) (*Field, error)
		ListApproved(context.Context) ([]Field, error)
		Search(context.Context, string) ([]Field, error)
		Approve(context.Context, string) error
		UpdateRating(context.Context, string, float64) error
	}
	Reviews interface {
		Create(context.Context, *Review) error
		GetByID(context.Context, int64) (*Review, error)
		ListByField(ctx context.Context, fieldID string, lastID, limit int64) ([]Review, error)
		GetRatingsByField(ctx context.Context, fieldID string) ([]int, error)
		Update(context.Context, *Review) error
		Delete(ctx context.Context, reviewID int64) error
	}
	Comments interface {
		Create(context.Context, *Comment) error
		GetByID(context.Context, int64) (*Comment, error)
		ListByReview(ctx context.Context, reviewID int64) ([]Comment, error)
		UpdateContent(context.Context, *Comment) error
		Delete(ctx context.Context, commentID int64) error
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		pool:     db,
		Users:    &UsersStore{db},
		Fields:   &FieldsStore{db},
		Reviews:  &ReviewsStore{db},
		Comments: &CommentsStore{db},
	}
}

// WithTx runs fn against a transaction-scoped copy of the storage, so a
// review mutation and the field rating recompute commit or roll back as
// one unit of work. A Storage assembled without a pool (fakes in tests)
// runs the unit of work directly against itself.
func (s *Storage) WithTx(ctx context.Context, fn func(tx Storage) error) error {
	if s.pool == nil {
		return fn(*s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx) // safe even if already committed
	}()

	txStore := Storage{
		Users:    &UsersStore{tx},
		Fields:   &FieldsStore{tx},
		Reviews:  &ReviewsStore{tx},
		Comments: &CommentsStore{tx},
	}

	if err := fn(txStore); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
