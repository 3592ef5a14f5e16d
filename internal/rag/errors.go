package rag

import (
	"context"
	"errors"
	"fmt"
	"net"

	"legal-rag-chatbot/internal/ai"
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	KindEmbedding ErrorKind = "embedding"
	KindRetrieval ErrorKind = "retrieval"
	KindSynthesis ErrorKind = "synthesis"
)

// Error is returned by every pipeline stage. Category is set for retrieval errors.
type Error struct {
	Kind     ErrorKind
	Category Category
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if e.Category != "" {
		msg = fmt.Sprintf("%s: %s [%s]", e.Kind, e.Message, e.Category)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can use errors.Is(err, rag.ErrRetrieval).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Retryable reports whether the failure came from a transient network
// condition rather than bad input or configuration.
func (e *Error) Retryable() bool {
	if e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) || ai.IsTransient(e.Err) {
		return true
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) {
		return netErr.Timeout()
	}
	var tr interface{ Temporary() bool }
	if errors.As(e.Err, &tr) {
		return tr.Temporary()
	}
	return false
}

var (
	ErrEmbedding = &Error{Kind: KindEmbedding, Message: "failed to embed question"}
	ErrRetrieval = &Error{Kind: KindRetrieval, Message: "failed to retrieve documents"}
	ErrSynthesis = &Error{Kind: KindSynthesis, Message: "failed to synthesize answer"}
)

func embeddingError(err error) error {
	return &Error{Kind: KindEmbedding, Message: ErrEmbedding.Message, Err: err}
}

func retrievalError(cat Category, err error) error {
	return &Error{Kind: KindRetrieval, Category: cat, Message: ErrRetrieval.Message, Err: err}
}

func synthesisError(err error) error {
	return &Error{Kind: KindSynthesis, Message: ErrSynthesis.Message, Err: err}
}
