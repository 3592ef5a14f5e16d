package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal-rag-chatbot/internal/ai"
)

func TestSynthesize_Parameters(t *testing.T) {
	chat := &fakeChat{reply: "  청구 기간은 3년입니다.  \n"}
	s := NewSynthesizer(chat, "")

	got, err := s.Synthesize(context.Background(), "청구 기간은?", "=== 📂 CASE ===\n", 0)
	require.NoError(t, err)
	assert.Equal(t, "청구 기간은 3년입니다.", got)

	req := chat.last()
	assert.Equal(t, DefaultChatModel, req.Model)
	assert.Equal(t, 0.2, req.Temperature)
	assert.Equal(t, 300, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, ai.RoleUser, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "=== 📂 CASE ===\n")
	assert.Contains(t, req.Messages[0].Content, "❓ 질문: 청구 기간은?")
}

func TestSynthesize_PersonaInUserTurn(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	_, err := NewSynthesizer(chat, "").Synthesize(context.Background(), "q", "c", 0)
	require.NoError(t, err)

	for _, m := range chat.last().Messages {
		assert.NotEqual(t, ai.RoleSystem, m.Role)
	}
	assert.True(t, strings.HasPrefix(chat.last().Messages[0].Content, "너는 오랜 실무 경력을 가진 손해사정사"))
}

func TestSynthesize_MaxTokensOverride(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	_, err := NewSynthesizer(chat, "custom-model").Synthesize(context.Background(), "q", "c", 120)
	require.NoError(t, err)
	assert.Equal(t, 120, chat.last().MaxTokens)
	assert.Equal(t, "custom-model", chat.last().Model)
}

func TestSynthesize_EmptyCompletionFallsBack(t *testing.T) {
	for _, reply := range []string{"", "   \n\t"} {
		got, err := NewSynthesizer(&fakeChat{reply: reply}, "").Synthesize(context.Background(), "q", "c", 0)
		require.NoError(t, err)
		assert.Equal(t, NoAnswer, got)
	}
}

func TestSynthesize_ModelErrorIsSynthesisKind(t *testing.T) {
	cause := errors.New("401 invalid api key")
	_, err := NewSynthesizer(&fakeChat{err: cause}, "").Synthesize(context.Background(), "q", "c", 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSynthesis)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRetrieval)
}

func TestSynthesize_Deterministic(t *testing.T) {
	s := NewSynthesizer(echoChat{}, "")
	ctx := "=== 📂 CASE ===\n- 가 (판례번호:1): 판시.\n"

	a, err := s.Synthesize(context.Background(), "보험금 청구 절차가 어떻게 되나요?", ctx, 0)
	require.NoError(t, err)
	b, err := s.Synthesize(context.Background(), "보험금 청구 절차가 어떻게 되나요?", ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildAnswerPrompt(t *testing.T) {
	p := BuildAnswerPrompt("질문", "자료")
	assert.True(t, strings.HasPrefix(p, persona+"\n\n아래 참고 자료를 분석하여"))
	assert.Contains(t, p, ExpertReferral)
	assert.Contains(t, p, "10줄 이내")
	assert.Contains(t, p, "📚 참고 자료:\n자료\n\n❓ 질문: 질문\n")
}
