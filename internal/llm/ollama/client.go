// Package ollama implements llm.FieldInferencer against an Ollama server's
// chat API, so the model stays resident between requests instead of being
// loaded per call.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mbalogun/receipt2ledger/internal/llm"
)

// Config for the Ollama client.
type Config struct {
	BaseURL     string        // default http://localhost:11434
	Model       string        // e.g. "llama3.2"
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Infer asks the model for {store, total} from receipt text. The prompt is a
// single system+user turn per request; no state leaks between calls.
// Transport failures surface as errors; unparsable completions fall back to
// the sentinel fields.
func (c *Client) Infer(ctx context.Context, receiptText string) (llm.ReceiptFields, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.infer.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(receiptText),
	)

	body := chatRequest{
		Model:  c.cfg.Model,
		Stream: false,
		Messages: []chatMessage{
			{Role: "system", Content: llm.SystemPrompt},
			{Role: "user", Content: llm.BuildUserPrompt(receiptText)},
		},
		Options: map[string]any{
			"temperature": c.cfg.Temperature,
			"num_predict": 100,
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/chat"
	raw, err := llm.PostJSON(ctx, c.http, endpoint, body, c.logger)
	if err != nil {
		c.logger.Error("llm.infer.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReceiptFields{}, fmt.Errorf("ollama chat: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		c.logger.Error("llm.infer.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
		)
		return llm.ReceiptFields{}, fmt.Errorf("decode ollama response: %w", err)
	}

	fields, ok := llm.DecodeCompletion(cr.Message.Content, c.logger)
	c.logger.Info("llm.infer.ok",
		"req_id", rid,
		"store", fields.Store,
		"total", fields.Total,
		"parsed", ok,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// CheckModel verifies the configured model is served by the Ollama instance.
// Called once at startup; a missing model is a fatal precondition.
func (c *Client) CheckModel(ctx context.Context) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", c.cfg.BaseURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("llm.tags.body_close_error", "error", cerr)
		}
	}()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("ollama tags: non-2xx status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}

	want := c.cfg.Model
	for _, m := range tags.Models {
		if m.Name == want || strings.SplitN(m.Name, ":", 2)[0] == want {
			return nil
		}
	}
	return fmt.Errorf("model %q not found on %s", want, c.cfg.BaseURL)
}
