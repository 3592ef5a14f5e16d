package routes

import (
	"context"
	"errors"
	"net/http"

	"legal-rag-chatbot/internal/ai"
	"legal-rag-chatbot/internal/logger"
	"legal-rag-chatbot/internal/rag"
	"legal-rag-chatbot/middleware"
	"legal-rag-chatbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusClientClosedRequest is the nginx convention for a caller that went away.
const statusClientClosedRequest = 499

// respondWithPipelineError maps pipeline failures onto the error envelope.
// Upstream failures are 502, an unavailable model is 503 and a timeout is 504.
// A request the client abandoned gets a bare 499 with no body.
func respondWithPipelineError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		logger.Info("pipeline request canceled by client",
			zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	logger.Error("pipeline request failed",
		zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))

	var rerr *rag.Error
	if !errors.As(err, &rerr) {
		utils.RespondWithInternalError(c, "Unexpected error", nil)
		return
	}

	details := gin.H{"retryable": rerr.Retryable()}
	if rerr.Category != "" {
		details["category"] = rerr.Category
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		utils.RespondWithError(c, http.StatusGatewayTimeout, "timeout", "The request took too long", details)
	case errors.Is(err, ai.ErrModelUnavailable):
		utils.RespondWithError(c, http.StatusServiceUnavailable, "model_unavailable", "The language model is temporarily unavailable", details)
	case rerr.Kind == rag.KindEmbedding:
		utils.RespondWithError(c, http.StatusBadGateway, "embedding_failed", rerr.Message, details)
	case rerr.Kind == rag.KindRetrieval:
		utils.RespondWithError(c, http.StatusBadGateway, "retrieval_failed", rerr.Message, details)
	case rerr.Kind == rag.KindSynthesis:
		utils.RespondWithError(c, http.StatusBadGateway, "synthesis_failed", rerr.Message, details)
	default:
		utils.RespondWithInternalError(c, rerr.Message, details)
	}
}
