package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/utils"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qianfan"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// ModelService builds completion clients and checks provider connectivity.
type ModelService struct {
	logger *slog.Logger
	// newModel is swapped in tests.
	newModel func(ctx context.Context, cfg *models.ModelConfig) (einoModel.ToolCallingChatModel, error)
}

func NewModelService() *ModelService {
	return &ModelService{
		logger:   utils.GetLogger(),
		newModel: CreateChatModel,
	}
}

// Providers lists the supported provider identifiers in stable order.
func (m *ModelService) Providers() []string {
	out := make([]string, 0, len(models.SupportedModelProviders))
	for p := range models.SupportedModelProviders {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// TestConnection sends a one-word prompt to the configured model.
func (m *ModelService) TestConnection(ctx context.Context, cfg models.ModelConfig) error {
	cfg.Normalize()
	if _, ok := models.SupportedModelProviders[cfg.Provider]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
	chatModel, err := m.newModel(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("model init failed: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := chatModel.Generate(ctx, []*schema.Message{{Role: schema.User, Content: "Hi"}}); err != nil {
		m.logger.Warn("Model connection test failed", "provider", cfg.Provider, "model", cfg.Model,
			"api_key", utils.MaskSensitiveString(cfg.ApiKey), "error", err)
		return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return nil
}

// CreateChatModel creates an eino chat model from config
func CreateChatModel(ctx context.Context, config *models.ModelConfig) (einoModel.ToolCallingChatModel, error) {
	if config == nil {
		return nil, fmt.Errorf("model config is nil")
	}

	switch config.Provider {
	case models.ProviderOpenAI, models.ProviderCustom:
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: config.BaseUrl,
			APIKey:  config.ApiKey,
			Model:   config.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI model: %w", err)
		}
		return chatModel, nil

	case models.ProviderArk:
		timeout := 120 * time.Second
		retries := 2
		chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:    config.BaseUrl,
			Region:     config.ExtraString("region"),
			Timeout:    &timeout,
			RetryTimes: &retries,
			APIKey:     config.ApiKey,
			Model:      config.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Ark model: %w", err)
		}
		return chatModel, nil

	case models.ProviderDeepSeek:
		chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			BaseURL: config.BaseUrl,
			APIKey:  config.ApiKey,
			Model:   config.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create DeepSeek model: %w", err)
		}
		return chatModel, nil

	case models.ProviderAnthropic:
		var baseURL *string
		if config.BaseUrl != "" {
			baseURL = &config.BaseUrl
		}
		chatModel, err := claude.NewChatModel(ctx, &claude.Config{
			BaseURL:   baseURL,
			APIKey:    config.ApiKey,
			Model:     config.Model,
			MaxTokens: 2048,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Claude model: %w", err)
		}
		return chatModel, nil

	case models.ProviderOllama:
		chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: config.BaseUrl,
			Model:   config.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama model: %w", err)
		}
		return chatModel, nil

	case models.ProviderGoogle:
		genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  config.ApiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client: genaiClient,
			Model:  config.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini model: %w", err)
		}
		return chatModel, nil

	case models.ProviderQianfan:
		qianfanConfig := qianfan.GetQianfanSingletonConfig()
		qianfanConfig.BaseURL = config.BaseUrl
		qianfanConfig.BearerToken = config.ApiKey
		chatModel, err := qianfan.NewChatModel(ctx, &qianfan.ChatModelConfig{
			Model: config.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Qianfan model: %w", err)
		}
		return chatModel, nil

	case models.ProviderQwen:
		chatModel, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
			BaseURL: config.BaseUrl,
			APIKey:  config.ApiKey,
			Model:   config.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Qwen model: %w", err)
		}
		return chatModel, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, config.Provider)
	}
}
