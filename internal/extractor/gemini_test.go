package extractor

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/slotbook/internal/session"
)

func TestSlotSchema(t *testing.T) {
	schema := slotSchema()
	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.ElementsMatch(t, []string{"date", "start_time", "end_time"}, schema.Required)
	assert.Len(t, schema.Properties, 3)
	for name, prop := range schema.Properties {
		assert.Equal(t, genai.TypeString, prop.Type, name)
	}
}

func TestGeminiHistory(t *testing.T) {
	history := []session.Message{
		{Role: session.RoleSystem, Content: "instructions"},
		{Role: session.RoleUser, Content: "tomorrow 3pm"},
		{Role: session.RoleAssistant, Content: "Please clarify the end time."},
	}

	got := geminiHistory(history)
	require.Len(t, got, 2)
	assert.Equal(t, "user", got[0].Role)
	assert.Equal(t, "model", got[1].Role)
	assert.Equal(t, genai.Text("tomorrow 3pm"), got[0].Parts[0])
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"date":`), genai.Text(`"x"}`)}},
		}},
	}
	assert.Equal(t, `{"date":"x"}`, responseText(resp))
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "")
	assert.Error(t, err)
}

func TestGemini_EmptyUtterance(t *testing.T) {
	g := NewGemini(nil, "")
	assert.Equal(t, DefaultGeminiModel, g.model)

	_, err := g.Extract(context.Background(), Request{SystemContext: "ctx", Utterance: "   "})
	require.ErrorIs(t, err, ErrEmptyUtterance)
	assert.True(t, session.IsKind(err, session.KindExtraction))
}
