package nanobanana

import (
	"bytes"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		wantErr error
	}{
		{name: "valid prompt", prompt: "A sunset over mountains"},
		{name: "empty prompt", prompt: "", wantErr: ErrEmptyPrompt},
		{name: "whitespace only", prompt: " \t\n ", wantErr: ErrEmptyPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrompt(tt.prompt)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateReferenceImage(t *testing.T) {
	tests := []struct {
		name    string
		img     ReferenceImage
		wantErr error
	}{
		{
			name: "valid png",
			img:  ReferenceImage{Data: []byte("fake image data"), MIMEType: "image/png"},
		},
		{
			name: "valid heic",
			img:  ReferenceImage{Data: []byte("fake image data"), MIMEType: "image/heic"},
		},
		{
			name:    "empty data",
			img:     ReferenceImage{MIMEType: "image/png"},
			wantErr: ErrEmptyImageData,
		},
		{
			name:    "missing MIME type",
			img:     ReferenceImage{Data: []byte("x")},
			wantErr: ErrInvalidMIMEType,
		},
		{
			name:    "unsupported MIME type",
			img:     ReferenceImage{Data: []byte("x"), MIMEType: "application/pdf"},
			wantErr: ErrInvalidMIMEType,
		},
		{
			name:    "too large",
			img:     ReferenceImage{Data: bytes.Repeat([]byte{0}, MaxImageSize+1), MIMEType: "image/png"},
			wantErr: ErrImageTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReferenceImage(tt.img)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	valid := func() *GenerationRequest {
		return &GenerationRequest{
			APIKey:      "key",
			Prompt:      "a cat",
			AspectRatio: AspectRatio1x1,
			Resolution:  Resolution2K,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(valid()))
	})

	t.Run("nil request", func(t *testing.T) {
		assert.ErrorIs(t, ValidateRequest(nil), ErrInvalidRequest)
	})

	t.Run("missing key", func(t *testing.T) {
		req := valid()
		req.APIKey = "   "
		assert.ErrorIs(t, ValidateRequest(req), ErrMissingAPIKey)
	})

	t.Run("bad enums", func(t *testing.T) {
		req := valid()
		req.AspectRatio = "7:3"
		assert.ErrorIs(t, ValidateRequest(req), ErrInvalidRequest)

		req = valid()
		req.Resolution = "8K"
		assert.ErrorIs(t, ValidateRequest(req), ErrInvalidRequest)
	})

	t.Run("invalid reference", func(t *testing.T) {
		req := valid()
		req.Reference = &ReferenceImage{MIMEType: "image/png"}
		assert.ErrorIs(t, ValidateRequest(req), ErrEmptyImageData)
	})

	t.Run("reports every problem", func(t *testing.T) {
		req := &GenerationRequest{AspectRatio: "x", Resolution: "y"}
		err := ValidateRequest(req)
		require.Error(t, err)

		var merr *multierror.Error
		require.True(t, errors.As(err, &merr))
		assert.Len(t, merr.Errors, 4)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	})
}
