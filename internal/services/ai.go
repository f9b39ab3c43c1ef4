package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mirelo/perfhub/backend/pkg/logger"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mirelo/perfhub/backend/internal/config"
	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
	"gorm.io/gorm"
)

// CriterionWeight is one weighted scoring dimension sent to the AI service.
type CriterionWeight struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// ScoringRequest is the input contract of the AI Scoring Service.
type ScoringRequest struct {
	ReportText    string
	Criteria      []CriterionWeight
	Instructions  string
	KnowledgeBase string
}

// ScoredCriterion is one per-criterion score in the AI response.
type ScoredCriterion struct {
	CriterionName string  `json:"criterion_name"`
	Score         float64 `json:"score"`
}

// ScoringResult is the output contract of the AI Scoring Service.
type ScoringResult struct {
	Reasoning      string            `json:"reasoning"`
	CriteriaScores []ScoredCriterion `json:"criteria_scores"`
}

// Scorer is the engine's view of the AI Scoring Service: an opaque, fallible
// remote call. The aggregator validates and weights whatever comes back.
type Scorer interface {
	Score(ctx context.Context, req *ScoringRequest) (*ScoringResult, error)
}

// AIService calls the configured LLM backends to score report text against a
// goal's weighted criteria. Backends come from llm_configs rows, falling back
// to the static OpenAI config.
type AIService struct {
	db     *gorm.DB
	config *config.OpenAIConfig
}

func NewAIService(db *gorm.DB, cfg *config.OpenAIConfig) *AIService {
	return &AIService{db: db, config: cfg}
}

// Score evaluates a report against weighted criteria, trying each configured
// backend in order until one succeeds.
func (s *AIService) Score(ctx context.Context, req *ScoringRequest) (*ScoringResult, error) {
	prompt := buildScoringPrompt(req)

	llmConfigs := s.getOrderedLLMConfigs()
	if len(llmConfigs) == 0 {
		return nil, fmt.Errorf("no LLM configuration available")
	}

	var lastErr error
	for i, llmConfig := range llmConfigs {
		logger.Infof("[AI] Attempting LLM %d/%d: %s (model: %s)", i+1, len(llmConfigs), llmConfig.Name, llmConfig.Model)

		content, err := s.callLLM(ctx, &llmConfig, prompt)
		if err != nil {
			lastErr = err
			logger.Infof("[AI] LLM %s failed: %v, trying next...", llmConfig.Name, err)
			continue
		}

		result, err := parseScoringResponse(content)
		if err != nil {
			lastErr = err
			logger.Infof("[AI] LLM %s returned unparseable response: %v, trying next...", llmConfig.Name, err)
			continue
		}

		logger.Infof("[AI] Success with LLM: %s (%d criterion scores)", llmConfig.Name, len(result.CriteriaScores))
		return result, nil
	}

	return nil, fmt.Errorf("all LLMs failed, last error: %w", lastErr)
}

// getOrderedLLMConfigs returns the default backend first, then remaining
// active backends by id, then the static config fallback.
func (s *AIService) getOrderedLLMConfigs() []models.LLMConfig {
	var configs []models.LLMConfig

	var defaultConfig models.LLMConfig
	if err := s.db.Where("is_default = ? AND is_active = ?", true, true).First(&defaultConfig).Error; err == nil {
		configs = append(configs, defaultConfig)
	}

	var backupConfigs []models.LLMConfig
	existingIDs := make(map[uint]bool)
	for _, c := range configs {
		existingIDs[c.ID] = true
	}
	s.db.Where("is_active = ?", true).Order("id ASC").Find(&backupConfigs)
	for _, c := range backupConfigs {
		if !existingIDs[c.ID] {
			configs = append(configs, c)
		}
	}

	if len(configs) == 0 && s.config != nil && s.config.APIKey != "" {
		configs = append(configs, models.LLMConfig{
			Name:    "fallback",
			BaseURL: s.config.BaseURL,
			APIKey:  s.config.APIKey,
			Model:   s.config.Model,
		})
	}

	return configs
}

// buildScoringPrompt asks for strict JSON so the response can be validated.
func buildScoringPrompt(req *ScoringRequest) string {
	var b strings.Builder

	b.WriteString("You are evaluating an employee progress report against a set of weighted criteria.\n")
	b.WriteString("Score each criterion from 1 to 10 based only on the report text.\n\n")

	b.WriteString("## Criteria\n")
	for _, c := range req.Criteria {
		fmt.Fprintf(&b, "- %s (weight %d)\n", c.Name, c.Weight)
	}

	if strings.TrimSpace(req.Instructions) != "" {
		b.WriteString("\n## Goal Instructions\n")
		b.WriteString(req.Instructions)
		b.WriteString("\n")
	}

	if strings.TrimSpace(req.KnowledgeBase) != "" {
		b.WriteString("\n## Contextual Knowledge\n")
		b.WriteString(req.KnowledgeBase)
		b.WriteString("\n")
	}

	b.WriteString("\n## Report\n")
	b.WriteString(req.ReportText)

	b.WriteString(`

## Output Format
Respond with a single JSON object and nothing else:
{"reasoning": "...", "criteria_scores": [{"criterion_name": "...", "score": 7}]}
Include one entry per criterion, using the exact criterion names given above.`)

	return b.String()
}

// parseScoringResponse extracts the JSON object from the model output.
// Models occasionally wrap JSON in code fences or prose; take the outermost
// object rather than failing on the wrapper.
func parseScoringResponse(content string) (*ScoringResult, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in scoring response")
	}

	var result ScoringResult
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("malformed scoring response: %w", err)
	}

	if len(result.CriteriaScores) == 0 {
		return nil, fmt.Errorf("scoring response contains no criterion scores")
	}

	return &result, nil
}

// callLLM dispatches to the appropriate provider-specific function based on Provider field
func (s *AIService) callLLM(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	logger.Infof("[AI] Using provider: %s, model: %s, baseURL: %s", llmConfig.Provider, llmConfig.Model, llmConfig.BaseURL)

	switch llmConfig.Provider {
	case "anthropic":
		return s.callAnthropic(ctx, llmConfig, prompt)
	case "ollama":
		return s.callOllama(ctx, llmConfig, prompt)
	case "gemini":
		return s.callGemini(ctx, llmConfig, prompt)
	case "azure":
		return s.callAzure(ctx, llmConfig, prompt)
	default:
		// openai and other OpenAI-compatible services
		return s.callOpenAI(ctx, llmConfig, prompt)
	}
}

// callOpenAI handles OpenAI and OpenAI-compatible APIs (including custom endpoints)
func (s *AIService) callOpenAI(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(llmConfig.APIKey)
	if llmConfig.BaseURL != "" {
		clientConfig.BaseURL = llmConfig.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	temperature := float32(0.2)
	if llmConfig.Temperature > 0 {
		temperature = float32(llmConfig.Temperature)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: llmConfig.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: temperature,
	})

	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// callAnthropic handles Anthropic Claude API using the native SDK
func (s *AIService) callAnthropic(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(llmConfig.APIKey),
	)

	maxTokens := int64(llmConfig.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	model := llmConfig.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return content, nil
}

// callOllama handles Ollama API using the native SDK
func (s *AIService) callOllama(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	baseURL := llmConfig.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := llmConfig.Model
	if model == "" {
		model = "llama3"
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Options: map[string]interface{}{
			"temperature": llmConfig.Temperature,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}

	return content.String(), nil
}

// callGemini handles Google Gemini API using the native SDK
func (s *AIService) callGemini(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: llmConfig.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := llmConfig.Model
	if model == "" {
		model = "gemini-3.0-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	return resp.Text(), nil
}

// callAzure handles Azure OpenAI API using special configuration
func (s *AIService) callAzure(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	// Azure requires BaseURL format: https://{resource-name}.openai.azure.com
	// Model field is used as deployment name
	cfg := openai.DefaultAzureConfig(llmConfig.APIKey, llmConfig.BaseURL)
	client := openai.NewClientWithConfig(cfg)

	temperature := float32(0.2)
	if llmConfig.Temperature > 0 {
		temperature = float32(llmConfig.Temperature)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: llmConfig.Model, // In Azure, this is the deployment name
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})

	if err != nil {
		return "", fmt.Errorf("Azure OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from Azure OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
