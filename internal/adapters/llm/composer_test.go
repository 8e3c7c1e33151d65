package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/lendflow/internal/adapters/llm"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":    "chatcmpl-1",
		"model": "test",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
	return string(b)
}

func TestCompose(t *testing.T) {
	var got llm.ChatCompletionRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(completion("  Great news, Rahul! 🙂  ")))
	}))
	defer srv.Close()

	c := llm.New(llm.NewClient("key", llm.WithBaseURL(srv.URL+"/v1/"), llm.WithHTTPClient(srv.Client())), llm.WithModel("m1"))
	text, err := c.Compose(context.Background(), ports.Scenario{
		Handler:     domain.HandlerSales,
		Kind:        "offer_pre_approved",
		Tone:        ports.ToneAnalytical,
		Facts:       map[string]any{"interest_rate": "9"},
		Instruction: "Present the offer.",
		UserMessage: "5 lakhs",
	})
	require.NoError(t, err)

	assert.Equal(t, "Great news, Rahul! 🙂", text)
	assert.Equal(t, "Bearer key", auth)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "m1", got.Model)
	assert.Equal(t, llm.DefaultMaxTokens, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.3, *got.Temperature, 0.001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "present loan offers")
	assert.Contains(t, got.Messages[1].Content, "offer_pre_approved")
	assert.Contains(t, got.Messages[1].Content, `"interest_rate": "9"`)
	assert.Contains(t, got.Messages[1].Content, `Customer said: "5 lakhs"`)
	assert.Contains(t, got.Messages[1].Content, "Task: Present the offer.")
}

func TestCompose_Errors(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"api error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
		},
		"empty":   func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(completion("   "))) },
		"garbage": func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`not json`)) },
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			c := llm.New(llm.NewClient("", llm.WithBaseURL(srv.URL)))
			_, err := c.Compose(context.Background(), ports.Scenario{Handler: domain.HandlerMaster, Instruction: "Greet."})
			assert.Error(t, err)
		})
	}
}

func TestTemperature(t *testing.T) {
	c := llm.New(llm.NewClient(""))
	assert.InDelta(t, 0.7, c.Temperature(ports.ToneConversational), 0.001)
	assert.InDelta(t, 0.3, c.Temperature(ports.ToneAnalytical), 0.001)
	assert.InDelta(t, 0.7, c.Temperature(""), 0.001)

	c = llm.New(llm.NewClient(""), llm.WithTemperatures(0.9, 0))
	assert.InDelta(t, 0.9, c.Temperature(ports.ToneConversational), 0.001)
	assert.InDelta(t, 0.3, c.Temperature(ports.ToneAnalytical), 0.001)
}
