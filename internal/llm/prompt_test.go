package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserPromptTrims(t *testing.T) {
	assert.Equal(t, "TESCO\nTOTAL 9.99", BuildUserPrompt("  TESCO\nTOTAL 9.99\n\n"))
}

func TestBuildUserPromptCapsLength(t *testing.T) {
	long := strings.Repeat("x", maxPromptChars+500)
	got := BuildUserPrompt(long)
	assert.Len(t, got, maxPromptChars)
}

func TestBuildUserPromptTruncatesOnRuneBoundary(t *testing.T) {
	// A run of multi-byte runes positioned so the cap lands mid-rune.
	long := strings.Repeat("x", maxPromptChars-1) + "£3.20 Café"
	got := BuildUserPrompt(long)

	assert.LessOrEqual(t, len(got), maxPromptChars)
	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	assert.True(t, strings.HasSuffix(got, "x"), "partial rune dropped entirely")
}
