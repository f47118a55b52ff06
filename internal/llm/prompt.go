package llm

import (
	"strings"
	"unicode/utf8"
)

// SystemPrompt constrains the model to emit {"store","total"} and to pick the
// payable total rather than tendered cash or change.
const SystemPrompt = `You are a receipt parser. Extract the store name and the TOTAL AMOUNT TO PAY from receipt text.

IMPORTANT:
- The total is the amount the customer needs to pay for their purchases (often labeled as "Total", "Amount Due", "To Pay", etc.)
- Do NOT use "Cash Tendered", "Cash Given", "Amount Tendered" - these are what the customer paid, not what they owe
- Do NOT use "Change" or "Cash Due" - these are what the customer gets back
- Look for terms like: "Total", "Amount Due", "To Pay", "Sub Total", "Final Total"

Return ONLY valid JSON in this exact format:
{"store": "STORE NAME", "total": "£XX.XX"}`

const maxPromptChars = 6000

// BuildUserPrompt packages one receipt's text as the single user turn.
// Each request is its own conversation; nothing carries over between calls.
func BuildUserPrompt(receiptText string) string {
	text := strings.TrimSpace(receiptText)
	if len(text) > maxPromptChars {
		// Cut on a rune boundary so the last character is never mangled.
		cut := maxPromptChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
