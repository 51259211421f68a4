package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sakamoto-giocolgeek/emotional-echo/internal/logging"
	"github.com/sakamoto-giocolgeek/emotional-echo/internal/metrics"
)

const (
	// FallbackScore is the fixed neutral value used whenever scoring fails
	// for any reason.
	FallbackScore = 0.5

	defaultTimeout = 10 * time.Second

	// Request shaping constants. Low temperature keeps the numeric answer
	// stable; the reply only needs to fit a tiny JSON object.
	requestTemperature = 0.2
	requestMaxTokens   = 50
)

const promptTemplate = `Analyze the sentiment of the following text and rate it with a numeric score between -1.0 (very negative) and 1.0 (very positive).
Respond with JSON in the form {"sentiment_score": <number>}.

Text: %q`

var (
	errMissingField  = errors.New("response payload missing sentiment_score")
	errEmptyResponse = errors.New("empty completion response")
)

// OpenAIScorer scores text via an OpenAI-compatible chat-completions API.
type OpenAIScorer struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewOpenAIScorer creates a scorer against the given chat-completions API.
// The external call is bounded by a single timeout so a stalled upstream
// cannot stall ingestion.
func NewOpenAIScorer(baseURL, apiKey, model string) *OpenAIScorer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "sentiment-scoring",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.ScoringCircuitState.Set(circuitStateValue(to))
			slog.Warn("Scoring circuit state changed", "state", to.String())
		},
	})

	return &OpenAIScorer{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: defaultTimeout},
		breaker: breaker,
		timeout: defaultTimeout,
	}
}

// Score returns a sentiment score in [0, 1] for the given content.
// It never surfaces an error: every failure is logged, counted, and mapped
// to FallbackScore.
func (s *OpenAIScorer) Score(ctx context.Context, content string) float64 {
	start := time.Now()
	raw, err := s.breaker.Execute(func() (any, error) {
		return s.classify(ctx, content)
	})
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		reason := fallbackReason(err)
		metrics.ScoringFallbacksTotal.WithLabelValues(reason).Inc()
		logging.WithError(err).Error("Sentiment scoring failed, using fallback score",
			"reason", reason,
			"fallback", FallbackScore,
		)
		return FallbackScore
	}

	return clamp(normalize(raw.(float64)))
}

// classify performs one chat-completions request and returns the raw model
// score in [-1, 1] (not yet clamped; the model may misbehave).
func (s *OpenAIScorer) classify(ctx context.Context, content string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reqBody := chatRequest{
		Model:       s.model,
		Messages:    []chatMessage{{Role: "user", Content: fmt.Sprintf(promptTemplate, content)}},
		Temperature: requestTemperature,
		MaxTokens:   requestMaxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("completion http error: status=%d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}
	if cr.Error != nil {
		return 0, fmt.Errorf("completion api error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return 0, errEmptyResponse
	}

	return parseScorePayload(cr.Choices[0].Message.Content)
}

// parseScorePayload extracts {"sentiment_score": n} from the model reply.
// Models occasionally wrap the JSON in prose, so parse the first JSON
// object found rather than the reply verbatim.
func parseScorePayload(reply string) (float64, error) {
	payload := firstJSONObject(reply)
	if payload == "" {
		return 0, fmt.Errorf("no JSON object in completion reply")
	}

	var parsed struct {
		SentimentScore *float64 `json:"sentiment_score"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return 0, fmt.Errorf("parse score payload: %w", err)
	}
	if parsed.SentimentScore == nil {
		return 0, errMissingField
	}

	return *parsed.SentimentScore, nil
}

// normalize remaps a raw model score from [-1, 1] to [0, 1].
func normalize(raw float64) float64 {
	return (raw + 1.0) / 2.0
}

// clamp absorbs out-of-range numeric output.
func clamp(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, errMissingField), errors.Is(err, errEmptyResponse):
		return "missing_field"
	case strings.Contains(err.Error(), "http error"), strings.Contains(err.Error(), "api error"):
		return "upstream"
	case strings.Contains(err.Error(), "parse"), strings.Contains(err.Error(), "unmarshal"), strings.Contains(err.Error(), "JSON"):
		return "parse"
	default:
		return "transport"
	}
}

func circuitStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// --- Wire types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ScorerFunc adapts a plain function to the domain.Scorer interface.
type ScorerFunc func(ctx context.Context, content string) float64

// Score implements domain.Scorer.
func (f ScorerFunc) Score(ctx context.Context, content string) float64 {
	return f(ctx, content)
}
