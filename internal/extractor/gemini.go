package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/teemow/slotbook/internal/session"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini extracts slots with a Google Gemini model.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a genai client authenticated with apiKey.
func NewGeminiClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// NewGemini returns an extractor using client and the named model.
func NewGemini(client *genai.Client, model string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model}
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// slotSchema constrains Gemini output to exactly the three slot fields.
func slotSchema() *genai.Schema {
	field := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":       field("Meeting date, YYYY-MM-DD, empty if unknown"),
			"start_time": field("Meeting start as an RFC3339 timestamp, empty if unknown"),
			"end_time":   field("Meeting end as an RFC3339 timestamp, empty if unknown"),
		},
		Required: []string{"date", "start_time", "end_time"},
	}
}

// configure sets up a per-call model. A fresh GenerativeModel is used for
// every request because the system instruction differs per session.
func (g *Gemini) configure(systemContext string) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(0)
	m.SetCandidateCount(1)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = slotSchema()
	if systemContext != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemContext)}}
	}
	return m
}

// geminiHistory converts prior conversation into chat history. System
// entries are dropped; they travel as the system instruction.
func geminiHistory(history []session.Message) []*genai.Content {
	var out []*genai.Content
	for _, msg := range history {
		var role string
		switch msg.Role {
		case session.RoleUser:
			role = "user"
		case session.RoleAssistant:
			role = "model"
		default:
			continue
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(msg.Content)}})
	}
	return out
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// Extract implements Extractor.
func (g *Gemini) Extract(ctx context.Context, req Request) (session.Slot, error) {
	if err := checkRequest(req); err != nil {
		return session.Slot{}, err
	}

	cs := g.configure(req.SystemContext).StartChat()
	cs.History = geminiHistory(req.History)

	resp, err := cs.SendMessage(ctx, genai.Text(req.Utterance))
	if err != nil {
		return session.Slot{}, failure(fmt.Errorf("gemini %s: %w", g.model, err))
	}
	return DecodeSlot(responseText(resp))
}
