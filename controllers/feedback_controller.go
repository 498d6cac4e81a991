package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"credcheck/logger"
	"credcheck/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VoteRepository persists votes and tallies them.
type VoteRepository interface {
	SaveVote(ctx context.Context, url string, vote models.VoteType) (models.Vote, error)
	TallyVotes(ctx context.Context, url string) (models.VoteTally, error)
}

// VoteLimiter decides whether client may vote on url again.
type VoteLimiter interface {
	Allow(ctx context.Context, client, url string) (bool, error)
}

// VoteCounter keeps live counts alongside (or instead of) the repository.
type VoteCounter interface {
	Record(ctx context.Context, url string, vote models.VoteType) error
	Tally(ctx context.Context, url string) (models.VoteTally, error)
}

// FeedbackController handles reader votes. Each collaborator is optional.
type FeedbackController struct {
	repo    VoteRepository
	limiter VoteLimiter
	counter VoteCounter
	logger  *zap.Logger
}

func NewFeedbackController(repo VoteRepository, limiter VoteLimiter, counter VoteCounter, log *zap.Logger) *FeedbackController {
	return &FeedbackController{repo: repo, limiter: limiter, counter: counter, logger: logger.OrNop(log)}
}

func (fc *FeedbackController) SubmitVote(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if !req.Vote.Valid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid vote. Must be one of: trustworthy, misleading, not_sure."})
		return
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required."})
		return
	}

	ctx := c.Request.Context()
	if fc.limiter != nil {
		allowed, err := fc.limiter.Allow(ctx, c.ClientIP(), url)
		if err != nil {
			fc.logger.Warn("Vote rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many votes for this URL. Please try again later."})
			return
		}
	}

	if fc.repo != nil {
		if _, err := fc.repo.SaveVote(ctx, url, req.Vote); err != nil {
			fc.logger.Error("Failed to save vote", zap.String("url", url), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback."})
			return
		}
	} else {
		fc.logger.Info("Feedback received (not persisted)", zap.String("url", url), zap.String("vote", string(req.Vote)))
	}

	if fc.counter != nil {
		if err := fc.counter.Record(ctx, url, req.Vote); err != nil {
			fc.logger.Warn("Failed to update live vote count", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, models.FeedbackResponse{
		Status:  "success",
		Message: fmt.Sprintf("Feedback '%s' for %s recorded successfully.", req.Vote, url),
	})
}

// GetTally returns per-type vote counts for ?url=, from the database when
// configured and from the live counter otherwise.
func (fc *FeedbackController) GetTally(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required."})
		return
	}

	var (
		tally models.VoteTally
		err   error
	)
	switch {
	case fc.repo != nil:
		tally, err = fc.repo.TallyVotes(c.Request.Context(), url)
	case fc.counter != nil:
		tally, err = fc.counter.Tally(c.Request.Context(), url)
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Vote storage is not configured."})
		return
	}
	if err != nil {
		fc.logger.Error("Failed to tally votes", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load votes."})
		return
	}
	c.JSON(http.StatusOK, tally)
}
