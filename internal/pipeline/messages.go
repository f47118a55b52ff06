package pipeline

import "fmt"

// User-facing status texts. Kept close to the pipeline so every stage
// reports progress consistently.
const (
	// MsgImagesOnly is also sent by the bot layer when a document upload
	// is rejected before the pipeline starts.
	MsgImagesOnly = "❌ Please send image files only."

	msgProcessing = "🔍 Processing your receipt..."
	msgDownloaded = "📷 Receipt image downloaded. Running OCR..."
	msgExtracted  = "🤖 Text extracted. Analyzing with LLM..."
	msgNoTotal    = "Could not parse total amount"
	msgAdding     = "💾 Adding transaction to the ledger..."

	msgProcessingError = "❌ Something went wrong while processing your receipt. Please try again."
	msgCancelled       = "Transaction cancelled."
	msgInvalidChoice   = "This confirmation is no longer valid."
)

func analysisText(store, total string) string {
	return fmt.Sprintf("Store: %s\nTotal: %s\n\nAdd this transaction to the ledger?", store, total)
}

func successText(store, total string) string {
	return fmt.Sprintf("✅ Added %s from %s to the ledger.", total, store)
}

// failureText keeps the store and total visible so the user can retry the
// entry by hand.
func failureText(store, total string, err error) string {
	return fmt.Sprintf("❌ Failed to add transaction to the ledger\n\nError: %v\n\n🏪 Store: %s\n💰 Total: %s", err, store, total)
}
