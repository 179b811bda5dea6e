package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Admins interface {
		GetByEmail(context.Context, string) (*Admin, error)
		GetByID(context.Context, string) (*Admin, error)
		Create(context.Context, *Admin) error
		Count(context.Context) (int, error)
	}
	Feedback interface {
		Create(context.Context, *Feedback) error
		List(context.Context, FeedbackFilter) ([]Feedback, error)
		UpdateStatus(context.Context, string, string) (*Feedback, error)
		Delete(context.Context, string) error
		Stats(context.Context) (FeedbackStats, error)
	}
}

func NewStorage(db *sql.DB) Storage {
	return Storage{
		Admins:   &AdminStore{db},
		Feedback: &FeedbackStore{db},
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
