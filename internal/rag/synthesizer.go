package rag

import (
	"context"
	"fmt"
	"strings"

	"legal-rag-chatbot/internal/ai"
)

const (
	// NoAnswer substitutes for an empty model completion.
	NoAnswer = "자료에 없음"

	// ExpertReferral is the phrase the model must use for out-of-context questions.
	ExpertReferral = "전문가에게 요청하기"

	DefaultChatModel    = "gpt-4o-mini"
	DefaultTemperature  = 0.2
	DefaultAnswerTokens = 300
	answerLineLimit     = 10
)

// ChatModel completes a role-tagged conversation.
type ChatModel interface {
	Complete(ctx context.Context, req ai.ChatRequest) (string, error)
}

// Synthesizer turns an assembled context and a question into a grounded answer.
type Synthesizer struct {
	model       ChatModel
	modelName   string
	temperature float64
	maxTokens   int
}

// NewSynthesizer uses the fixed decoding parameters of the answer path.
func NewSynthesizer(model ChatModel, modelName string) *Synthesizer {
	if modelName == "" {
		modelName = DefaultChatModel
	}
	return &Synthesizer{
		model:       model,
		modelName:   modelName,
		temperature: DefaultTemperature,
		maxTokens:   DefaultAnswerTokens,
	}
}

// Synthesize calls the model once. There is no retry and no cached fallback:
// a model failure is returned as a synthesis error.
func (s *Synthesizer) Synthesize(ctx context.Context, question, contextText string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = s.maxTokens
	}

	req := ai.ChatRequest{
		Model: s.modelName,
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: BuildAnswerPrompt(question, contextText)},
		},
		Temperature: s.temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := s.model.Complete(ctx, req)
	if err != nil {
		return "", synthesisError(err)
	}

	answer := strings.TrimSpace(raw)
	if answer == "" {
		answer = NoAnswer
	}
	return answer, nil
}

const persona = "너는 오랜 실무 경력을 가진 손해사정사이자 보험 관련 법률 어시스턴트다. " +
	"보험금 청구, 교통사고, 손해배상 업무를 완벽히 숙지하고 있다."

// BuildAnswerPrompt is the single user turn sent to the model: the adjuster
// persona, the answering rules, then the context and the question verbatim.
func BuildAnswerPrompt(question, contextText string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	b.WriteString("아래 참고 자료를 분석하여, 질문과 직접 관련된 핵심 답변만 제시하라.\n")
	b.WriteString("- 질문이 처한 상황을 다시 한번 인지하고 답변에 반영한다.\n")
	b.WriteString("- 답변은 반드시 참고 자료에서 근거를 찾아야 한다.\n")
	fmt.Fprintf(&b, "- 참고 자료와 무관한 내용은 '%s'라고 말한다.\n", ExpertReferral)
	fmt.Fprintf(&b, "- 답변은 %d줄 이내로 확실하고 간결한 요약문으로 작성한다.\n", answerLineLimit)
	b.WriteString("- 검색된 CASE와 PRACTICE 자료를 연계하여 질문에 맞는 내용을 분석해 요약한다.\n")
	b.WriteString("- 전문적이고 섬세하게, 구체적으로 답변한다.\n\n")
	b.WriteString("📚 참고 자료:\n")
	b.WriteString(contextText)
	b.WriteString("\n\n❓ 질문: ")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}
