package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare object", in: `{"store": "Shop", "total": "£9.99"}`, want: `{"store": "Shop", "total": "£9.99"}`},
		{name: "markdown fence", in: "```json\n{\"store\": \"Shop\", \"total\": \"£9.99\"}\n```", want: `{"store": "Shop", "total": "£9.99"}`},
		{name: "plain fence", in: "```\n{\"store\": \"A\", \"total\": \"1\"}\n```", want: `{"store": "A", "total": "1"}`},
		{name: "surrounding chatter", in: "Here you go:\n{\"store\": \"A\", \"total\": \"1\"}\nHope that helps!", want: `{"store": "A", "total": "1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("no object", func(t *testing.T) {
		_, err := ExtractJSONObject("sorry, I cannot read this receipt")
		assert.Error(t, err)
	})

	t.Run("unterminated object", func(t *testing.T) {
		_, err := ExtractJSONObject(`{"store": "Shop"`)
		assert.Error(t, err)
	})
}

func TestDecodeCompletionValid(t *testing.T) {
	fields, ok := DecodeCompletion(`{"store": "Tesco", "total": "£12.50"}`, nil)
	assert.True(t, ok)
	assert.Equal(t, ReceiptFields{Store: "Tesco", Total: "£12.50"}, fields)
}

func TestDecodeCompletionTrimsWhitespace(t *testing.T) {
	fields, ok := DecodeCompletion(`{"store": "  Tesco ", "total": " £12.50 "}`, nil)
	assert.True(t, ok)
	assert.Equal(t, ReceiptFields{Store: "Tesco", Total: "£12.50"}, fields)
}

func TestDecodeCompletionSentinelFallback(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "not json", in: "I could not find a total on this receipt."},
		{name: "broken json", in: `{"store": "Shop", "total": `},
		{name: "missing total", in: `{"store": "Shop"}`},
		{name: "missing store", in: `{"total": "£9.99"}`},
		{name: "wrong types", in: `{"store": "Shop", "total": 9.99}`},
		{name: "extra fields", in: `{"store": "Shop", "total": "£9.99", "date": "2024-01-01"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, ok := DecodeCompletion(tt.in, nil)
			assert.False(t, ok)
			assert.Equal(t, Sentinel(), fields)
		})
	}
}
