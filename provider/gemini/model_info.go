package gemini

import nanobanana "github.com/seiseiai1st/NanoBananaProPlayGround"

// NanoBananaProInfo is the model info for Gemini 3 Pro Image.
//
// Nano Banana Pro (official name: Gemini 3 Pro Image) is Google DeepMind's
// image generation and editing model, built on Gemini 3 Pro.
var NanoBananaProInfo = nanobanana.ModelInfo{
	Name:         "nano-banana-pro",
	APIModelName: APIModelNanoBananaPro,

	ImageConstraints: nanobanana.ImageConstraints{
		SupportedAspectRatios: nanobanana.AspectRatios(),
		SupportedResolutions:  nanobanana.Resolutions(),
	},

	// Image output is billed per image: 1K/2K ~$0.134, 4K ~$0.24.
	// Reference image input adds roughly $0.001.
	Pricing: nanobanana.Pricing{
		PerImage:       nanobanana.CostTable,
		ReferenceImage: nanobanana.ReferenceImageCost,
	},
}

// ModelInfoFor returns the model info for an API model name, reusing the
// known pricing and constraints for custom model names.
func ModelInfoFor(apiModelName string) nanobanana.ModelInfo {
	if apiModelName == "" || apiModelName == APIModelNanoBananaPro {
		return NanoBananaProInfo
	}
	info := NanoBananaProInfo
	info.Name = apiModelName
	info.APIModelName = apiModelName
	return info
}
