package nanobanana

import "time"

// DefaultImageMIMEType is used when the response omits the image MIME type.
const DefaultImageMIMEType = "image/png"

// GeneratedImage represents a single generated image result.
// Data is never empty when the image is returned without an error.
type GeneratedImage struct {
	// Data contains the raw image bytes
	Data []byte

	// MIMEType of the generated image
	MIMEType string
}

// HistoryEntry is one successful generation kept by the session.
type HistoryEntry struct {
	Image     GeneratedImage
	Prompt    string
	Timestamp time.Time
}

// CostSummary reports the session's spending so far.
type CostSummary struct {
	// Last is the cost of the most recent successful generation.
	Last Cost

	// Total is the sum of all successful generations this session.
	Total Cost

	// Count is the number of successful generations this session.
	Count int
}
