package extractor

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/teemow/slotbook/internal/session"
)

// DefaultOpenAIModel is the model used when none is configured.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAIConfig configures the OpenAI backend. BaseURL allows any
// OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAI extracts slots with an OpenAI chat model using structured outputs.
type OpenAI struct {
	client *openai.Client
	model  string
	format *openai.ChatCompletionResponseFormat
}

// slotOutput mirrors session.Slot for schema generation; every field is
// required and no additional properties are allowed.
type slotOutput struct {
	Date      string `json:"date" description:"Meeting date, YYYY-MM-DD, empty if unknown"`
	StartTime string `json:"start_time" description:"Meeting start as an RFC3339 timestamp, empty if unknown"`
	EndTime   string `json:"end_time" description:"Meeting end as an RFC3339 timestamp, empty if unknown"`
}

// NewOpenAI creates the OpenAI backend.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	schema, err := jsonschema.GenerateSchemaForType(slotOutput{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate slot schema: %w", err)
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(conf),
		model:  cfg.Model,
		format: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "slot",
				Schema: schema,
				Strict: true,
			},
		},
	}, nil
}

func openAIMessages(req Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.SystemContext != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemContext})
	}
	for _, m := range req.History {
		switch m.Role {
		case session.RoleUser:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case session.RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content})
		}
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Utterance})
}

// Extract implements Extractor.
func (o *OpenAI) Extract(ctx context.Context, req Request) (session.Slot, error) {
	if err := checkRequest(req); err != nil {
		return session.Slot{}, err
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          o.model,
		Messages:       openAIMessages(req),
		ResponseFormat: o.format,
	})
	if err != nil {
		return session.Slot{}, failure(fmt.Errorf("openai %s: %w", o.model, err))
	}
	if len(resp.Choices) == 0 {
		return session.Slot{}, failure(fmt.Errorf("%w: no choices returned", ErrMalformedResponse))
	}
	return DecodeSlot(resp.Choices[0].Message.Content)
}
