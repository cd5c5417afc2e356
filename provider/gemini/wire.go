package gemini

import (
	nanobanana "github.com/seiseiai1st/NanoBananaProPlayGround"
	"google.golang.org/genai"
)

// Response modalities requested on every call.
var responseModalities = []string{"IMAGE", "TEXT"}

// generateContentRequest is the REST body of models/{model}:generateContent.
// Contents use the SDK's wire types; generationConfig is spelled out because
// the SDK's GenerateContentConfig is not the REST shape.
type generateContentRequest struct {
	Contents         []*genai.Content `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseModalities []string           `json:"responseModalities"`
	ImageConfig        *genai.ImageConfig `json:"imageConfig"`
}

// buildRequest assembles the request body. The reference image goes first
// and the prompt text last: the model reads earlier parts as context and the
// final text part as the instruction.
func buildRequest(req *nanobanana.GenerationRequest) *generateContentRequest {
	parts := make([]*genai.Part, 0, 2)

	if req.Reference != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				Data:     req.Reference.Data,
				MIMEType: req.Reference.MIMEType,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: req.Prompt})

	return &generateContentRequest{
		Contents: []*genai.Content{
			{Parts: parts},
		},
		GenerationConfig: generationConfig{
			ResponseModalities: responseModalities,
			ImageConfig: &genai.ImageConfig{
				AspectRatio: req.AspectRatio.String(),
				ImageSize:   req.Resolution.String(),
			},
		},
	}
}
