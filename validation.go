package nanobanana

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Validation errors
var (
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrEmptyImageData  = errors.New("image data cannot be empty")
	ErrInvalidMIMEType = errors.New("invalid or unsupported MIME type")
	ErrImageTooLarge   = errors.New("image data exceeds maximum size")
)

// MaxImageSize is the maximum allowed reference image size in bytes (20MB).
const MaxImageSize = 20 * 1024 * 1024

// ValidMIMETypes contains the supported reference image MIME types
var ValidMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/heic": true,
	"image/heif": true,
}

// ValidatePrompt validates a text prompt. Whitespace-only prompts are empty.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// ValidateReferenceImage validates a reference image.
func ValidateReferenceImage(img ReferenceImage) error {
	if len(img.Data) == 0 {
		return ErrEmptyImageData
	}

	if len(img.Data) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(img.Data), MaxImageSize)
	}

	if img.MIMEType == "" {
		return fmt.Errorf("%w: MIME type is required", ErrInvalidMIMEType)
	}

	if !ValidMIMETypes[img.MIMEType] {
		return fmt.Errorf("%w: %s", ErrInvalidMIMEType, img.MIMEType)
	}

	return nil
}

// ValidateRequest checks every field of req and reports all problems at once.
func ValidateRequest(req *GenerationRequest) error {
	if req == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}

	var result *multierror.Error

	if strings.TrimSpace(req.APIKey) == "" {
		result = multierror.Append(result, ErrMissingAPIKey)
	}
	if err := ValidatePrompt(req.Prompt); err != nil {
		result = multierror.Append(result, err)
	}
	if !req.AspectRatio.Valid() {
		result = multierror.Append(result, fmt.Errorf("%w: aspect ratio %q", ErrInvalidRequest, req.AspectRatio))
	}
	if !req.Resolution.Valid() {
		result = multierror.Append(result, fmt.Errorf("%w: resolution %q", ErrInvalidRequest, req.Resolution))
	}
	if req.Reference != nil {
		if err := ValidateReferenceImage(*req.Reference); err != nil {
			result = multierror.Append(result, fmt.Errorf("reference image: %w", err))
		}
	}

	return result.ErrorOrNil()
}
