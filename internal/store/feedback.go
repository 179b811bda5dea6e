package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	FeedbackStatusNew      = "new"
	FeedbackStatusReviewed = "reviewed"
)

type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Rating    int       `json:"rating"`
	Category  *string   `json:"category,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FeedbackFilter narrows the admin listing. Status "" or "all" matches every status.
type FeedbackFilter struct {
	Status string
	Search string
	Sort   string
}

type FeedbackStats struct {
	Total         int
	AverageRating float64
}

// ValidFeedbackStatus reports whether s is a status an admin may set.
func ValidFeedbackStatus(s string) bool {
	return s == FeedbackStatusNew || s == FeedbackStatusReviewed
}

type FeedbackStore struct {
	db *sql.DB
}

const feedbackColumns = `id, name, email, message, rating, category, status, created_at, updated_at`

func scanFeedback(row interface{ Scan(...any) error }) (Feedback, error) {
	var f Feedback
	var category sql.NullString
	err := row.Scan(&f.ID, &f.Name, &f.Email, &f.Message, &f.Rating, &category, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if category.Valid {
		f.Category = &category.String
	}
	return f, err
}

func (s *FeedbackStore) Create(ctx context.Context, f *Feedback) error {
	query := `
		INSERT INTO feedback (id, name, email, message, rating, category, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	f.ID = uuid.NewString()
	f.Email = NormalizeEmail(f.Email)
	if f.Status == "" {
		f.Status = FeedbackStatusNew
	}

	err := s.db.QueryRowContext(ctx, query,
		f.ID, f.Name, f.Email, f.Message, f.Rating, f.Category, f.Status,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

func (s *FeedbackStore) List(ctx context.Context, f FeedbackFilter) ([]Feedback, error) {
	var (
		where []string
		args  []any
	)
	if status := strings.TrimSpace(f.Status); status != "" && status != "all" {
		args = append(args, status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR message ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + feedbackColumns + ` FROM feedback`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	switch f.Sort {
	case "oldest":
		query += ` ORDER BY created_at ASC`
	case "rating-high":
		query += ` ORDER BY rating DESC, created_at DESC`
	case "rating-low":
		query += ` ORDER BY rating ASC, created_at DESC`
	default:
		query += ` ORDER BY created_at DESC`
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	list := []Feedback{}
	for rows.Next() {
		item, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *FeedbackStore) UpdateStatus(ctx context.Context, id, status string) (*Feedback, error) {
	query := `
		UPDATE feedback SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + feedbackColumns

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	f, err := scanFeedback(s.db.QueryRowContext(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update feedback status: %w", err)
	}
	return &f, nil
}

func (s *FeedbackStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *FeedbackStore) Stats(ctx context.Context) (FeedbackStats, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var st FeedbackStats
	query := `SELECT COUNT(*), COALESCE(AVG(rating), 0)::float8 FROM feedback`
	if err := s.db.QueryRowContext(ctx, query).Scan(&st.Total, &st.AverageRating); err != nil {
		return st, fmt.Errorf("feedback stats: %w", err)
	}
	return st, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
