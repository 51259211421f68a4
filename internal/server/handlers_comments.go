package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/sakamoto-giocolgeek/emotional-echo/internal/errors"
	"github.com/sakamoto-giocolgeek/emotional-echo/internal/metrics"
)

// createCommentRequest accepts both the flat form {"content": "..."} and the
// nested form {"comment": {"content": "..."}}. The nested key wins when both
// are present.
type createCommentRequest struct {
	Content string `json:"content"`
	Comment *struct {
		Content string `json:"content"`
	} `json:"comment"`
}

func (r *createCommentRequest) content() string {
	if r.Comment != nil {
		return r.Comment.Content
	}
	return r.Content
}

func (s *Server) handleCreateComment(c echo.Context) error {
	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("request body must be valid JSON")
	}

	comment, err := s.app.SubmitComment(c.Request().Context(), req.content())
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusCreated, comment); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListComments(c echo.Context) error {
	comments, err := s.app.ListComments(c.Request().Context())
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, comments); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// submitRateLimit throttles comment submissions per source IP.
func (s *Server) submitRateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.submitLimits.Allow(c.RealIP()) {
			metrics.SubmissionRateLimitedTotal.Inc()
			return apperrors.RateLimitedError("too many submissions, slow down")
		}
		return next(c)
	}
}
