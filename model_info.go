package nanobanana

import "github.com/samber/lo"

// ImageConstraints defines supported image configurations for a model.
type ImageConstraints struct {
	SupportedAspectRatios []AspectRatio
	SupportedResolutions  []Resolution
}

// Pricing defines the per-image price of a model.
type Pricing struct {
	PerImage       map[Resolution]Cost
	ReferenceImage Cost // Added once when a reference image is sent
}

// Cost returns the price of one image at res.
func (p Pricing) Cost(res Resolution, hasReference bool) Cost {
	c := p.PerImage[res]
	if hasReference {
		c += p.ReferenceImage
	}
	return c
}

// ModelInfo contains complete metadata for a model.
type ModelInfo struct {
	// Identity
	Name         string // Public model name (e.g., "nano-banana-pro")
	APIModelName string // Actual API name (e.g., "gemini-3-pro-image-preview")

	ImageConstraints ImageConstraints
	Pricing          Pricing
}

// Supports reports whether the model accepts the given image settings.
func (m ModelInfo) Supports(ratio AspectRatio, res Resolution) bool {
	return lo.Contains(m.ImageConstraints.SupportedAspectRatios, ratio) &&
		lo.Contains(m.ImageConstraints.SupportedResolutions, res)
}
