package routes

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"legal-rag-chatbot/internal/logger"
	"legal-rag-chatbot/internal/queue"
	"legal-rag-chatbot/internal/rag"
	"legal-rag-chatbot/middleware"
	"legal-rag-chatbot/models"
	"legal-rag-chatbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RAGService is the pipeline surface the handlers call.
type RAGService interface {
	AnswerQuestion(ctx context.Context, question string, opts rag.AskOptions) (*rag.Answer, error)
	Search(ctx context.Context, query string) (*rag.Retrieved, error)
	Assist(ctx context.Context, prompt string, maxTokens int) (*rag.AssistReply, error)
}

// JobQueue queues questions for the worker and reports their state.
type JobQueue interface {
	EnqueueAnswer(ctx context.Context, question string, maxTokens int) (string, error)
	Job(id string) (*queue.JobStatus, error)
}

// SetupChatRoutes registers the question, assistant and search endpoints under /api.
// jobs may be nil, in which case the async endpoints answer 503.
func SetupChatRoutes(router *gin.Engine, svc RAGService, jobs JobQueue) {
	api := router.Group("/api")

	// Legal question through the full RAG pipeline
	api.POST("/chat", func(c *gin.Context) {
		var req models.ChatMessage
		if !bindQuestion(c, &req) {
			return
		}

		ans, err := svc.AnswerQuestion(c.Request.Context(), req.Message, rag.AskOptions{MaxTokens: req.MaxLength})
		if err != nil {
			respondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ChatResponse{
			ReplyContent: ans.Context,
			ReplyAnswer:  ans.Answer,
			Degraded:     ans.Degraded,
		})
	})

	// Customer-service assistant, no retrieval. Always answers 200.
	api.POST("/chatBot", func(c *gin.Context) {
		var req models.UserInputParam
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		reply, err := svc.Assist(c.Request.Context(), req.Prompt, req.MaxLength)
		if err != nil {
			logger.Warn("assistant call failed",
				zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
			c.JSON(http.StatusOK, models.AIResponse{
				Response: rag.AssistUnavailable,
				Action:   "error: " + err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, models.AIResponse{Response: reply.Response, Action: reply.Action})
	})

	// Retrieval only: documents per category, no language model call
	api.GET("/search", func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("query"))
		if query == "" {
			utils.RespondWithBadRequest(c, "query parameter is required", nil)
			return
		}

		retrieved, err := svc.Search(c.Request.Context(), query)
		if err != nil {
			respondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SearchResponse{
			Query:     query,
			Cases:     nonNil(retrieved.Cases),
			Laws:      nonNil(retrieved.Laws),
			Practices: nonNil(retrieved.Practices),
		})
	})

	api.POST("/chat/async", func(c *gin.Context) {
		if jobs == nil {
			utils.RespondWithServiceUnavailable(c, "Async answering requires Redis")
			return
		}

		var req models.ChatMessage
		if !bindQuestion(c, &req) {
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		id, err := jobs.EnqueueAnswer(ctx, req.Message, req.MaxLength)
		if err != nil {
			logger.Error("enqueue failed", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
			utils.RespondWithServiceUnavailable(c, "Failed to queue question")
			return
		}

		c.JSON(http.StatusAccepted, models.AsyncJob{JobID: id, Status: "pending"})
	})

	api.GET("/chat/jobs/:id", func(c *gin.Context) {
		if jobs == nil {
			utils.RespondWithServiceUnavailable(c, "Async answering requires Redis")
			return
		}

		status, err := jobs.Job(c.Param("id"))
		if err != nil {
			if errors.Is(err, queue.ErrJobNotFound) {
				utils.RespondWithNotFound(c, "Job not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to read job", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, status)
	})
}

// bindQuestion decodes the body and rejects blank messages. It writes the
// error response itself and reports whether the handler should continue.
func bindQuestion(c *gin.Context, req *models.ChatMessage) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "invalid_input", "Invalid request data", gin.H{"error": err.Error()})
		return false
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "invalid_input", "message must not be blank", nil)
		return false
	}
	return true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
