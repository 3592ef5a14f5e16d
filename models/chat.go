// models/chat.go
package models

import "legal-rag-chatbot/internal/rag"

// ChatMessage is the body of POST /api/chat and POST /api/chat/async.
type ChatMessage struct {
	Message   string `json:"message" binding:"required,max=2000"`
	MaxLength int    `json:"max_length,omitempty" binding:"omitempty,gte=1,lte=4000"`
}

// ChatResponse carries the context the model saw and its answer.
type ChatResponse struct {
	ReplyContent string         `json:"reply_content"`
	ReplyAnswer  string         `json:"reply_answer"`
	Degraded     []rag.Category `json:"degraded,omitempty"`
}

// UserInputParam is the body of POST /api/chatBot. Temperature and Image are
// accepted for client compatibility; the assistant uses a fixed temperature.
type UserInputParam struct {
	Prompt      string   `json:"prompt"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxLength   int      `json:"max_length,omitempty" binding:"omitempty,gte=1,lte=4000"`
	Image       *string  `json:"image,omitempty"`
}

// AIResponse is the assistant reply. Action classifies the inquiry, or holds
// "error: ..." when the model call failed.
type AIResponse struct {
	Response string `json:"response"`
	Action   string `json:"action"`
}

// SearchResponse lists retrieved documents per category without an answer.
type SearchResponse struct {
	Query     string            `json:"query"`
	Cases     []rag.CaseDoc     `json:"cases"`
	Laws      []rag.LawDoc      `json:"laws"`
	Practices []rag.PracticeDoc `json:"practices"`
}

// AsyncJob is returned when a question is queued.
type AsyncJob struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}
