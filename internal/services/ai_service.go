package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pzhukov/medminder/internal/logger"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

const tipPrompt = `You are a health assistant for a medication reminder app.

REQUIREMENTS:
- Return ONE short, practical, general health tip
- Maximum 140 characters
- Plain text only, no quotes, no emoji, no preamble
- Never give medical advice about specific medications or conditions

Example response format:
Drink a glass of water first thing in the morning to kickstart your hydration.`

// AIService generates health-tip text. Gemini is the primary provider with
// an automatic switch to OpenAI when Gemini fails or is not configured.
type AIService struct {
	geminiClient *genai.Client
	openaiClient *openai.Client
}

// NewAIService returns nil when no provider key is configured; callers treat
// a nil service as "AI unavailable".
func NewAIService(ctx context.Context, geminiAPIKey, openaiAPIKey string) (*AIService, error) {
	if geminiAPIKey == "" && openaiAPIKey == "" {
		return nil, nil
	}

	s := &AIService{}
	if geminiAPIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(geminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
	}
	if openaiAPIKey != "" {
		s.openaiClient = openai.NewClient(openaiAPIKey)
	}
	return s, nil
}

// GenerateTip asks Gemini first and falls back to OpenAI.
func (s *AIService) GenerateTip(ctx context.Context) (string, error) {
	if s.geminiClient != nil {
		tip, err := s.generateWithGemini(ctx)
		if err == nil {
			return tip, nil
		}
		logger.Warn("Gemini tip generation failed, trying OpenAI", "error", err)
	}
	if s.openaiClient != nil {
		return s.generateWithOpenAI(ctx)
	}
	return "", fmt.Errorf("no AI provider available")
}

func (s *AIService) generateWithGemini(ctx context.Context) (string, error) {
	model := s.geminiClient.GenerativeModel("gemini-1.5-flash")
	resp, err := model.GenerateContent(ctx, genai.Text(tipPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response part from Gemini")
	}
	tip := strings.TrimSpace(string(text))
	if tip == "" {
		return "", fmt.Errorf("empty tip from Gemini")
	}
	return tip, nil
}

func (s *AIService) generateWithOpenAI(ctx context.Context) (string, error) {
	resp, err := s.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: tipPrompt},
		},
		MaxTokens: 60,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	tip := strings.TrimSpace(resp.Choices[0].Message.Content)
	if tip == "" {
		return "", fmt.Errorf("empty tip from OpenAI")
	}
	return tip, nil
}
