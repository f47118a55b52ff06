package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbalogun/receipt2ledger/internal/llm"
)

func TestInferParsesModelReply(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: `{"store": "Shop", "total": "£9.99"}`},
			Done:    true,
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "llama3.2"}, nil)
	fields, err := c.Infer(context.Background(), "TOTAL 9.99")
	require.NoError(t, err)

	assert.Equal(t, llm.ReceiptFields{Store: "Shop", Total: "£9.99"}, fields)
	assert.Equal(t, "llama3.2", gotReq.Model)
	assert.False(t, gotReq.Stream)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, llm.SystemPrompt, gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "TOTAL 9.99", gotReq.Messages[1].Content)
}

func TestInferSentinelOnGarbageCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "I cannot read this receipt, sorry."},
			Done:    true,
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	fields, err := c.Infer(context.Background(), "garbage")
	require.NoError(t, err, "unparsable output must not surface as an error")
	assert.Equal(t, llm.Sentinel(), fields)
}

func TestInferSurfacesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	_, err := c.Infer(context.Background(), "text")
	assert.Error(t, err)
}

func TestCheckModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"llava:7b"}]}`))
	}))
	defer srv.Close()

	t.Run("present by base name", func(t *testing.T) {
		c := NewClient(Config{BaseURL: srv.URL, Model: "llama3.2"}, nil)
		assert.NoError(t, c.CheckModel(context.Background()))
	})

	t.Run("present by full tag", func(t *testing.T) {
		c := NewClient(Config{BaseURL: srv.URL, Model: "llava:7b"}, nil)
		assert.NoError(t, c.CheckModel(context.Background()))
	})

	t.Run("missing", func(t *testing.T) {
		c := NewClient(Config{BaseURL: srv.URL, Model: "mistral"}, nil)
		assert.ErrorContains(t, c.CheckModel(context.Background()), "not found")
	})

	t.Run("unreachable", func(t *testing.T) {
		c := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "llama3.2"}, nil)
		assert.Error(t, c.CheckModel(context.Background()))
	})
}
