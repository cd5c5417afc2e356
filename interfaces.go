package nanobanana

import "context"

// ImageGenerator is the core interface for the generation endpoint.
//
// Generate performs exactly one exchange with the endpoint. It returns either
// a non-empty image or an error; data-level failures are always a
// *GenerationError. Implementations hold no per-call state and are safe for
// concurrent use.
type ImageGenerator interface {
	Generate(ctx context.Context, req *GenerationRequest) (*GeneratedImage, error)

	// Model returns the model served by this generator.
	Model() ModelInfo
}

// CredentialStore persists the API key between runs.
type CredentialStore interface {
	// Load returns the stored key, or "" when none was saved.
	Load() (string, error)

	// Save stores key under the store's fixed key name.
	Save(key string) error
}
