package extract

import (
	"context"
	"time"
)

// TextExtractor is Stage 1 of the pipeline: image file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Method   string // "image-ocr"
	Language string
	Duration time.Duration
	Warnings []string
}
