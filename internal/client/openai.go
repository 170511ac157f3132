package client

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// imageNegativeInstruction is appended to every cover prompt so the artwork
// stays usable as a thumbnail across platforms.
const imageNegativeInstruction = "No text, no words, no letters, no people, no characters."

// OpenAIClient wraps chat completion and image generation behind the two
// operations the pipeline needs.
type OpenAIClient struct {
	api         *openai.Client
	httpClient  *http.Client
	chatModel   string
	imageModel  string
	temperature float32
	configured  bool
}

// OpenAIConfig carries the client settings.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	ImageModel  string
	Temperature float64
}

// NewOpenAIClient creates an OpenAI client. An empty API key yields an
// unconfigured client whose calls fail fast.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	c := &OpenAIClient{
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		chatModel:   cfg.ChatModel,
		imageModel:  cfg.ImageModel,
		temperature: float32(cfg.Temperature),
		configured:  cfg.APIKey != "",
	}
	if c.chatModel == "" {
		c.chatModel = openai.GPT4oMini
	}
	if c.imageModel == "" {
		c.imageModel = openai.CreateImageModelDallE3
	}
	if !c.configured {
		log.Printf("[openai] no API key configured, generation calls will fail")
		return c
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	c.api = openai.NewClientWithConfig(apiCfg)
	return c
}

// IsConfigured reports whether an API key was provided.
func (c *OpenAIClient) IsConfigured() bool {
	return c.configured
}

// CompleteText runs one chat completion and returns the trimmed assistant
// reply with markdown wrapping stripped.
func (c *OpenAIClient) CompleteText(ctx context.Context, system, user string) (string, error) {
	if !c.configured {
		return "", fmt.Errorf("openai client is not configured")
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", &MalformedResponseError{Vendor: "openai", Detail: "completion returned no choices"}
	}

	text := StripFormatting(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &MalformedResponseError{Vendor: "openai", Detail: "completion returned an empty message"}
	}
	return text, nil
}

// GenerateImage renders a square cover image for the given prompt and
// downloads the artwork bytes.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if !c.configured {
		return nil, fmt.Errorf("openai client is not configured")
	}

	fullPrompt := strings.TrimSpace(prompt) + " " + imageNegativeInstruction
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:          c.imageModel,
		Prompt:         fullPrompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, ErrNoImageURL
	}

	log.Printf("[openai] image generated, downloading artwork")
	return fetchBytes(ctx, c.httpClient, resp.Data[0].URL, nil)
}

// StripFormatting removes markdown fences, emphasis markers and wrapping
// quotes that chat models add around otherwise plain replies.
func StripFormatting(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "\n"); idx >= 0 && !strings.ContainsAny(s[:idx], " \t") {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "*", "")

	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}
