package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakamoto-giocolgeek/emotional-echo/internal/domain"
)

// pgCheckViolation is the SQLSTATE for CHECK constraint violations.
const pgCheckViolation = "23514"

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

// Create persists a comment and returns it with its store-assigned id and
// creation timestamp. Constraint violations surface as validation errors
// with field messages; they never reach the broadcast layer.
func (r *CommentRepo) Create(ctx context.Context, content string, sentimentScore float64) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comments (content, sentiment_score)
		VALUES ($1, $2)
		RETURNING id, content, sentiment_score, created_at
	`, content, sentimentScore).Scan(
		&comment.ID, &comment.Content, &comment.SentimentScore, &comment.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
			return nil, domain.NewValidationError(fieldMessageFor(pgErr))
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return &comment, nil
}

func fieldMessageFor(pgErr *pgconn.PgError) string {
	switch pgErr.ConstraintName {
	case "comments_content_check":
		return "content can't be blank"
	case "comments_sentiment_score_check":
		return "sentiment_score must be between 0.0 and 1.0"
	default:
		return "comment is invalid"
	}
}
