package llm

import "context"

// ReceiptFields is the structured candidate inferred from receipt text.
// Total is the raw model output and may carry a currency symbol; whether it
// parses to a usable amount is the caller's concern, not this layer's.
type ReceiptFields struct {
	Store string `json:"store"`
	Total string `json:"total"`
}

// Sentinel values returned when the model's output cannot be parsed.
const (
	SentinelStore = "Unknown"
	SentinelTotal = "£0.00"
)

// Sentinel returns the fallback fields used when model output is unusable.
func Sentinel() ReceiptFields {
	return ReceiptFields{Store: SentinelStore, Total: SentinelTotal}
}

// FieldInferencer is the boundary the pipeline depends on: receipt text in,
// {store, total} out. Implementations return an error only for transport or
// model failures; unparsable model output yields the sentinel instead.
type FieldInferencer interface {
	Infer(ctx context.Context, receiptText string) (ReceiptFields, error)
}
