package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash(t *testing.T) {
	assert.Len(t, ContentHash("model", "text"), 64)
	assert.Equal(t, ContentHash("a", "b"), ContentHash("a", "b"))
	assert.NotEqual(t, ContentHash("ab", "c"), ContentHash("a", "bc"))
	assert.NotEqual(t, ContentHash("ko-sroberta", "질문"), ContentHash("text-embedding-004", "질문"))
}
