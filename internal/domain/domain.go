package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// Comment is the unit flowing through the whole pipeline.
// ID and CreatedAt are assigned by the store at creation and immutable
// thereafter. SentimentScore is assigned exactly once, before persistence,
// and always lies in [0, 1].
type Comment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Content        string    `json:"content" db:"content"`
	SentimentScore float64   `json:"sentiment_score" db:"sentiment_score"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// --- Interfaces ---

// CommentRepository abstracts comment persistence. Create assigns the
// comment's identity and timestamp.
type CommentRepository interface {
	Create(ctx context.Context, content string, sentimentScore float64) (*Comment, error)
}

// Scorer scores text sentiment. Score never fails: any scoring problem
// resolves to the neutral fallback internally.
type Scorer interface {
	Score(ctx context.Context, content string) float64
}

// Publisher delivers a persisted comment to every currently connected
// subscriber of the comments topic.
type Publisher interface {
	Publish(comment *Comment)
}

// AppService is the application layer contract. Handlers route all
// operations through here.
type AppService interface {
	SubmitComment(ctx context.Context, content string) (*Comment, error)
	ListComments(ctx context.Context) ([]Comment, error)
}
