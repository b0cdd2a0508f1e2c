package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/kamusis/answerhub/internal/dispatch"
)

const systemPrompt = "You are an intelligent assistant that extracts structured parameters from user queries."

type openAIExtractor struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI constructs an extractor for any OpenAI-compatible chat completions
// endpoint. The question is sent with one function tool built from the
// handler schema and tool_choice "auto".
func NewOpenAI(cfg *Config) Extractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	cc.HTTPClient = &http.Client{Timeout: timeout}
	return &openAIExtractor{
		client:  openai.NewClientWithConfig(cc),
		model:   cfg.Model,
		timeout: timeout,
	}
}

func (p *openAIExtractor) Extract(ctx context.Context, question string, schema dispatch.Schema) (dispatch.Arguments, error) {
	if p.model == "" {
		return dispatch.Empty(), fmt.Errorf("%w (set extractor.model)", ErrNotConfigured)
	}
	name := schema.Name
	if name == "" {
		name = "default_function_name"
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        name,
				Description: schema.Description,
				Parameters:  schema.Parameters,
			},
		}},
		ToolChoice: "auto",
	})
	if err != nil {
		return dispatch.Empty(), fmt.Errorf("extraction request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return dispatch.Empty(), fmt.Errorf("extraction response has no choices")
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return dispatch.Empty(), nil
	}
	args, err := dispatch.ParseJSON([]byte(calls[0].Function.Arguments))
	if err != nil {
		return dispatch.Empty(), fmt.Errorf("cannot parse tool call arguments: %w", err)
	}
	return args, nil
}
