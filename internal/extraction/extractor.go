package extraction

import "context"

// Result contains information extracted from a receipt image.
type Result struct {
	Amount float64 `json:"amount"`
	Text   string  `json:"text,omitempty"`
}

// Extractor defines the interface for amount extraction. The input is a
// publicly resolvable image URL; extraction is best-effort and callers
// must tolerate failure.
type Extractor interface {
	// Extract fetches the image behind the URL and extracts the total amount.
	Extract(ctx context.Context, imageURL string) (*Result, error)
	// Close closes the extractor and releases resources
	Close() error
}
