package app

import (
	"context"
	"errors"
	"strings"

	"github.com/sakamoto-giocolgeek/emotional-echo/internal/domain"
	"github.com/sakamoto-giocolgeek/emotional-echo/internal/logging"
	"github.com/sakamoto-giocolgeek/emotional-echo/internal/metrics"
)

// Service orchestrates comment ingestion: validate, score, persist, publish.
type Service struct {
	comments  domain.CommentRepository
	scorer    domain.Scorer
	publisher domain.Publisher
}

func NewService(comments domain.CommentRepository, scorer domain.Scorer, publisher domain.Publisher) *Service {
	return &Service{
		comments:  comments,
		scorer:    scorer,
		publisher: publisher,
	}
}

// SubmitComment validates and ingests a comment. Blank content is rejected
// before any scoring call is made, so invalid submissions never cost an
// external request. On success the persisted comment has been published to
// the topic exactly once.
func (s *Service) SubmitComment(ctx context.Context, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		metrics.CommentsSubmittedTotal.WithLabelValues("rejected").Inc()
		return nil, domain.NewValidationError("content can't be blank")
	}

	// Scoring never fails: any problem resolves to the neutral fallback
	// inside the scorer.
	score := s.scorer.Score(ctx, content)

	comment, err := s.comments.Create(ctx, content, score)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			metrics.CommentsSubmittedTotal.WithLabelValues("rejected").Inc()
			return nil, validationErr
		}
		metrics.CommentsSubmittedTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	// Publish strictly after persistence succeeded. Publish has no error
	// path: undeliverable subscribers are the hub's problem, not the
	// submitter's.
	s.publisher.Publish(comment)

	metrics.CommentsSubmittedTotal.WithLabelValues("created").Inc()
	logging.WithComment(comment.ID.String()).Info("Comment ingested",
		"sentiment_score", comment.SentimentScore,
	)

	return comment, nil
}

// ListComments always returns an empty collection. New viewers deliberately
// see no backlog: the experience is live-only, and nothing downstream
// supports replay.
func (s *Service) ListComments(_ context.Context) ([]domain.Comment, error) {
	return []domain.Comment{}, nil
}
