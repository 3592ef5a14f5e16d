package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"legal-rag-chatbot/internal/logger"
	"legal-rag-chatbot/internal/rag"
)

const (
	TaskAnswerQuestion = "rag:answer"

	// QueueDefault holds answer jobs. Job lookups go through this queue.
	QueueDefault = "default"

	resultRetention = 24 * time.Hour
)

type AnswerPayload struct {
	Question  string `json:"question"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// AnswerResult is what a completed job stores as its asynq result.
type AnswerResult struct {
	ReplyContent string   `json:"reply_content"`
	ReplyAnswer  string   `json:"reply_answer"`
	Degraded     []string `json:"degraded,omitempty"`
}

// Task creators
func NewAnswerTask(question string, maxTokens int) (*asynq.Task, error) {
	payload, err := json.Marshal(AnswerPayload{
		Question:  question,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskAnswerQuestion,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Queue(QueueDefault),
		asynq.Retention(resultRetention),
	), nil
}

// Answerer is the part of the pipeline a worker needs.
type Answerer interface {
	AnswerQuestion(ctx context.Context, question string, opts rag.AskOptions) (*rag.Answer, error)
}

// Task handlers
type TaskProcessor struct {
	pipeline Answerer
}

func NewTaskProcessor(pipeline Answerer) *TaskProcessor {
	return &TaskProcessor{pipeline: pipeline}
}

// AnswerQuestion runs the pipeline for a queued question and writes the
// answer as the task result. Non-retryable pipeline errors skip retries.
func (p *TaskProcessor) AnswerQuestion(ctx context.Context, t *asynq.Task) error {
	var payload AnswerPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(payload.Question) == "" {
		return fmt.Errorf("empty question: %w", asynq.SkipRetry)
	}

	ans, err := p.pipeline.AnswerQuestion(ctx, payload.Question, rag.AskOptions{MaxTokens: payload.MaxTokens})
	if err != nil {
		var rerr *rag.Error
		if errors.As(err, &rerr) && !rerr.Retryable() {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err // Will retry
	}

	res := AnswerResult{ReplyContent: ans.Context, ReplyAnswer: ans.Answer}
	for _, c := range ans.Degraded {
		res.Degraded = append(res.Degraded, string(c))
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	if _, err := t.ResultWriter().Write(raw); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	logger.Info("answer job completed", zap.String("task_id", t.ResultWriter().TaskID()))
	return nil
}

// Mux routes task types to the processor.
func (p *TaskProcessor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskAnswerQuestion, p.AnswerQuestion)
	return mux
}
