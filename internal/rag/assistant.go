package rag

import (
	"context"
	"strings"

	"legal-rag-chatbot/internal/ai"
)

const (
	ActionCustomerService  = "customer_service"
	ActionAccountHelp      = "account_help"
	ActionUsageGuide       = "usage_guide"
	ActionTechnicalSupport = "technical_support"

	// AssistUnavailable is shown to the user when the assistant call fails.
	AssistUnavailable = "죄송합니다. 일시적인 오류가 발생했습니다. 잠시 후 다시 시도해주세요."

	assistTemperature      = 0.3
	DefaultAssistMaxTokens = 1000
)

// AssistReply is the answer of the non-RAG assistant plus a coarse category of
// the inquiry, kept for later analysis.
type AssistReply struct {
	Response string `json:"response"`
	Action   string `json:"action"`
}

// Assistant answers app-usage and support questions directly, without retrieval.
type Assistant struct {
	model     ChatModel
	modelName string
}

func NewAssistant(model ChatModel, modelName string) *Assistant {
	if modelName == "" {
		modelName = DefaultChatModel
	}
	return &Assistant{model: model, modelName: modelName}
}

// Reply forwards the prompt with the support persona. maxTokens <= 0 uses the default.
func (a *Assistant) Reply(ctx context.Context, prompt string, maxTokens int) (*AssistReply, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultAssistMaxTokens
	}

	out, err := a.model.Complete(ctx, ai.ChatRequest{
		Model: a.modelName,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: assistantPersona},
			{Role: ai.RoleUser, Content: "**고객 문의:** " + prompt + "\n\n위 문의에 대해 친절하고 도움이 되는 답변을 제공해주세요."},
		},
		Temperature: assistTemperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, synthesisError(err)
	}

	return &AssistReply{Response: out, Action: ClassifyInquiry(prompt)}, nil
}

var inquiryKeywords = []struct {
	action   string
	keywords []string
}{
	{ActionAccountHelp, []string{"로그인", "회원가입", "계정"}},
	{ActionUsageGuide, []string{"사용법", "기능", "어떻게"}},
	{ActionTechnicalSupport, []string{"오류", "안됨", "문제"}},
}

// ClassifyInquiry tags a support question by keyword; first matching group wins.
func ClassifyInquiry(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, group := range inquiryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.action
			}
		}
	}
	return ActionCustomerService
}

const assistantPersona = `너는 '법률 상담 AI 앱'의 친절하고 전문적인 고객서비스 담당자입니다.

**역할:**
- 앱 사용법 안내
- 기능 설명 및 도움말 제공
- 계정/로그인 관련 문의 처리
- 서비스 이용 중 발생한 문제 해결
- 요금/결제 관련 안내
- 일반적인 앱 관련 질문 응답

**응답 방식:**
- 친근하고 정중한 말투 사용
- 단계별로 명확하게 설명
- 구체적인 해결 방법 제시
- 필요시 관련 기능 위치 안내

**앱 주요 기능:**
1. AI 법률 상담: 보험, 교통사고, 손해사정 관련 전문 상담
2. 업체 검색: 손해사정 관련 업체 찾기
3. 계정 관리: 일반 회원가입, 소셜 로그인
4. 판례/법령 검색: AI 기반 법률 문서 검색

**법률 상담이 아닌 경우 처리:**
- 법률 상담 질문이면: "법률 상담은 메인 화면의 'AI 상담' 기능을 이용해주세요."
- 앱 사용법/기술 문의면: 친절하게 상세 안내
- 서비스 불만/제안이면: "소중한 의견 감사합니다. 개선에 참고하겠습니다."`
