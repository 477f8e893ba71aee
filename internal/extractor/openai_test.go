package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/slotbook/internal/session"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string          `json:"name"`
			Strict bool            `json:"strict"`
			Schema json.RawMessage `json:"schema"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

func openAIServer(t *testing.T, status int, content string, got *chatRequest) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	o, err := NewOpenAI(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	return o
}

func TestOpenAI_Extract(t *testing.T) {
	var got chatRequest
	o := openAIServer(t, http.StatusOK, `{"date":"2025-06-02","start_time":"15:00","end_time":"16:00"}`, &got)

	slot, err := o.Extract(context.Background(), Request{
		SystemContext: "system instructions",
		History:       []session.Message{{Role: session.RoleSystem, Content: "ignored"}, {Role: session.RoleUser, Content: "earlier"}},
		Utterance:     "tomorrow 3pm to 4pm",
	})
	require.NoError(t, err)
	assert.Equal(t, session.Slot{Date: "2025-06-02", StartTime: "15:00", EndTime: "16:00"}, slot)

	assert.Equal(t, DefaultOpenAIModel, got.Model)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "earlier", got.Messages[1].Content)
	assert.Equal(t, "tomorrow 3pm to 4pm", got.Messages[2].Content)

	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	assert.True(t, got.ResponseFormat.JSONSchema.Strict)

	var schema struct {
		Required             []string `json:"required"`
		AdditionalProperties bool     `json:"additionalProperties"`
	}
	require.NoError(t, json.Unmarshal(got.ResponseFormat.JSONSchema.Schema, &schema))
	assert.ElementsMatch(t, []string{"date", "start_time", "end_time"}, schema.Required)
	assert.False(t, schema.AdditionalProperties)
}

func TestOpenAI_IncompleteAnswer(t *testing.T) {
	var got chatRequest
	o := openAIServer(t, http.StatusOK, `{"date":"","start_time":"","end_time":""}`, &got)

	_, err := o.Extract(context.Background(), Request{Utterance: "sometime next week"})
	require.ErrorIs(t, err, ErrIncompleteSlot)
	assert.True(t, session.IsKind(err, session.KindExtraction))
}

func TestOpenAI_APIError(t *testing.T) {
	var got chatRequest
	o := openAIServer(t, http.StatusInternalServerError, "", &got)

	_, err := o.Extract(context.Background(), Request{Utterance: "tomorrow"})
	require.Error(t, err)
	assert.True(t, session.IsKind(err, session.KindExtraction))
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{})
	assert.Error(t, err)
}
