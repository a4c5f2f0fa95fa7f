package core

import "context"

// TextExtractor turns an uploaded document into plain text. The contentType
// hint selects the parsing strategy.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}
