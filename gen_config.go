package nanobanana

import (
	"fmt"
	"strings"
)

// Resolution represents the output resolution for generated images.
type Resolution string

const (
	Resolution1K Resolution = "1K"
	Resolution2K Resolution = "2K"
	Resolution4K Resolution = "4K"
)

// AspectRatio represents the aspect ratio for generated images.
type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio3x2  AspectRatio = "3:2" // Photo landscape (35mm film ratio)
	AspectRatio2x3  AspectRatio = "2:3" // Photo portrait
	AspectRatio3x4  AspectRatio = "3:4"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio4x5  AspectRatio = "4:5" // Instagram portrait
	AspectRatio5x4  AspectRatio = "5:4" // Large format photo
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio21x9 AspectRatio = "21:9" // Ultrawide/cinematic
)

// Session defaults for a fresh settings panel.
const (
	DefaultAspectRatio = AspectRatio16x9
	DefaultResolution  = Resolution1K
)

var aspectRatios = []AspectRatio{
	AspectRatio1x1,
	AspectRatio3x2,
	AspectRatio2x3,
	AspectRatio3x4,
	AspectRatio4x3,
	AspectRatio4x5,
	AspectRatio5x4,
	AspectRatio9x16,
	AspectRatio16x9,
	AspectRatio21x9,
}

var resolutions = []Resolution{Resolution1K, Resolution2K, Resolution4K}

// AspectRatios returns every supported aspect ratio in display order.
func AspectRatios() []AspectRatio {
	out := make([]AspectRatio, len(aspectRatios))
	copy(out, aspectRatios)
	return out
}

// Resolutions returns every supported resolution in display order.
func Resolutions() []Resolution {
	out := make([]Resolution, len(resolutions))
	copy(out, resolutions)
	return out
}

// Valid reports whether a is one of the supported aspect ratios.
func (a AspectRatio) Valid() bool {
	for _, r := range aspectRatios {
		if r == a {
			return true
		}
	}
	return false
}

// Valid reports whether r is one of the supported resolutions.
func (r Resolution) Valid() bool {
	switch r {
	case Resolution1K, Resolution2K, Resolution4K:
		return true
	}
	return false
}

// ParseAspectRatio parses user input such as "16:9".
func ParseAspectRatio(s string) (AspectRatio, error) {
	a := AspectRatio(strings.TrimSpace(s))
	if !a.Valid() {
		return "", fmt.Errorf("%w: aspect ratio %q", ErrInvalidRequest, s)
	}
	return a, nil
}

// ParseResolution parses user input such as "2K". Lowercase is accepted.
func ParseResolution(s string) (Resolution, error) {
	r := Resolution(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: resolution %q", ErrInvalidRequest, s)
	}
	return r, nil
}

// String returns the string representation for API calls.
func (r Resolution) String() string {
	return string(r)
}

// String returns the string representation for API calls.
func (a AspectRatio) String() string {
	return string(a)
}

// ReferenceImage is the optional image sent ahead of the prompt.
type ReferenceImage struct {
	// Data is the raw image bytes
	Data []byte

	// MIMEType of the image (e.g., "image/jpeg", "image/png")
	MIMEType string

	// Name and Size are display metadata; they are never sent upstream.
	Name string
	Size int
}

// GenerationRequest holds everything needed for one generateContent call.
// A request is built fresh for every call and is not modified afterwards.
type GenerationRequest struct {
	// APIKey is passed through to the endpoint as-is. Never log it in full.
	APIKey string

	Prompt      string
	AspectRatio AspectRatio
	Resolution  Resolution

	// Reference is optional; at most one image is supported.
	Reference *ReferenceImage
}

// HasReference reports whether the request carries a reference image.
func (r *GenerationRequest) HasReference() bool {
	return r != nil && r.Reference != nil
}
