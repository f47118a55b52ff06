package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// ExtractJSONObject cuts the first {...} object out of a model completion,
// tolerating markdown code fences and chatter around it.
func ExtractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in completion")
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return "", fmt.Errorf("unterminated JSON object in completion")
	}
	return text[start : end+1], nil
}

// DecodeCompletion parses a model completion into ReceiptFields. Output that
// fails extraction, schema validation, or decoding yields the sentinel and
// ok=false; this layer never raises, isolating model unpredictability from
// the pipeline.
func DecodeCompletion(completion string, logger *slog.Logger) (ReceiptFields, bool) {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := ExtractJSONObject(completion)
	if err != nil {
		logger.Warn("llm.parse.no_json", "error", err, "completion_len", len(completion))
		return Sentinel(), false
	}
	if err := ValidateFields([]byte(raw)); err != nil {
		logger.Warn("llm.parse.schema_invalid", "error", err)
		return Sentinel(), false
	}

	var out ReceiptFields
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logger.Warn("llm.parse.decode_failed", "error", err)
		return Sentinel(), false
	}
	out.Store = strings.TrimSpace(out.Store)
	out.Total = strings.TrimSpace(out.Total)
	return out, true
}
