package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	nanobanana "github.com/seiseiai1st/NanoBananaProPlayGround"
)

// "aW1n" is base64 for "img".
const (
	imagePart = `{"inlineData":{"mimeType":"image/png","data":"aW1n"}}`
	textOnly  = `{"text":"Sorry, I cannot generate that."}`
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   nanobanana.FailureKind
		wantData   string
		wantMIME   string
		wantInDiag string
	}{
		{
			name:     "image after text",
			status:   200,
			body:     `{"candidates":[{"content":{"parts":[{"text":"Here it is"},` + imagePart + `]},"finishReason":"STOP"}]}`,
			wantData: "img",
			wantMIME: "image/png",
		},
		{
			name:     "image before text",
			status:   200,
			body:     `{"candidates":[{"content":{"parts":[` + imagePart + `,{"text":"done"}]},"finishReason":"STOP"}]}`,
			wantData: "img",
			wantMIME: "image/png",
		},
		{
			name:     "missing finish reason is accepted",
			status:   200,
			body:     `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/jpeg","data":"aW1n"}}]}}]}`,
			wantData: "img",
			wantMIME: "image/jpeg",
		},
		{
			name:     "missing MIME type defaults to png",
			status:   200,
			body:     `{"candidates":[{"content":{"parts":[{"inlineData":{"data":"aW1n"}}]},"finishReason":"STOP"}]}`,
			wantData: "img",
			wantMIME: "image/png",
		},
		{
			name:     "only the first candidate counts",
			status:   200,
			body:     `{"candidates":[{"content":{"parts":[` + textOnly + `]},"finishReason":"STOP"},{"content":{"parts":[` + imagePart + `]},"finishReason":"STOP"}]}`,
			wantKind: nanobanana.TextOnlyFallback,
		},
		{
			name:       "non-2xx wins over a valid body",
			status:     500,
			body:       `{"candidates":[{"content":{"parts":[` + imagePart + `]},"finishReason":"STOP"}]}`,
			wantKind:   nanobanana.HTTPStatus,
			wantInDiag: "candidates",
		},
		{
			name:       "blocked prompt",
			status:     200,
			body:       `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			wantKind:   nanobanana.Blocked,
			wantInDiag: "block reason: SAFETY",
		},
		{
			name:       "no candidates",
			status:     200,
			body:       `{}`,
			wantKind:   nanobanana.EmptyResponse,
			wantInDiag: "no candidates",
		},
		{
			name:       "truncated even with an image",
			status:     200,
			body:       `{"candidates":[{"content":{"parts":[` + imagePart + `]},"finishReason":"MAX_TOKENS"}]}`,
			wantKind:   nanobanana.Truncated,
			wantInDiag: "finishReason: MAX_TOKENS",
		},
		{
			name:       "safety finish",
			status:     200,
			body:       `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`,
			wantKind:   nanobanana.Truncated,
			wantInDiag: "finishReason: SAFETY",
		},
		{
			name:       "empty parts",
			status:     200,
			body:       `{"candidates":[{"content":{"parts":[]},"finishReason":"STOP"}]}`,
			wantKind:   nanobanana.EmptyResponse,
			wantInDiag: "empty parts",
		},
		{
			name:       "missing content",
			status:     200,
			body:       `{"candidates":[{"finishReason":"STOP"}]}`,
			wantKind:   nanobanana.EmptyResponse,
			wantInDiag: "empty parts",
		},
		{
			name:       "text only",
			status:     200,
			body:       `{"candidates":[{"content":{"parts":[` + textOnly + `]},"finishReason":"STOP"}]}`,
			wantKind:   nanobanana.TextOnlyFallback,
			wantInDiag: "Sorry, I cannot generate that.",
		},
		{
			name:       "empty inline data is not an image",
			status:     200,
			body:       `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":""}}]},"finishReason":"STOP"}]}`,
			wantKind:   nanobanana.NoImagePart,
			wantInDiag: `"data":""`,
		},
		{
			name:       "null success body",
			status:     200,
			body:       " null\n",
			wantKind:   nanobanana.EmptyResponse,
			wantInDiag: "no candidates",
		},
		{
			name:       "null candidates",
			status:     200,
			body:       `{"candidates":null,"promptFeedback":null}`,
			wantKind:   nanobanana.EmptyResponse,
			wantInDiag: "no candidates",
		},
		{
			name:       "non-JSON success body",
			status:     200,
			body:       `<html>oops</html>`,
			wantKind:   nanobanana.EmptyResponse,
			wantInDiag: "<html>oops</html>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := classify(exchange{status: tt.status, body: []byte(tt.body)})

			if tt.wantKind == 0 {
				require.NoError(t, err)
				assert.Equal(t, []byte(tt.wantData), img.Data)
				assert.Equal(t, tt.wantMIME, img.MIMEType)
				return
			}

			require.Error(t, err)
			assert.Nil(t, img)
			genErr, ok := nanobanana.AsGenerationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, genErr.Kind)
			assert.Equal(t, tt.status, genErr.StatusCode)
			assert.Contains(t, genErr.Diagnostic, tt.wantInDiag)
		})
	}
}

func TestClassify_HTTPStatusBodyVerbatim(t *testing.T) {
	body := `{"error":"rate limited"}`
	_, err := classify(exchange{status: 429, body: []byte(body)})

	genErr, ok := nanobanana.AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, nanobanana.HTTPStatus, genErr.Kind)
	assert.Equal(t, 429, genErr.StatusCode)
	assert.Equal(t, body, genErr.Diagnostic)
}

func TestClassify_NoImagePartKeepsRawBody(t *testing.T) {
	body := `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png"}}]},"finishReason":"STOP"}]}`
	_, err := classify(exchange{status: 200, body: []byte(body)})

	genErr, ok := nanobanana.AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, nanobanana.NoImagePart, genErr.Kind)
	assert.Equal(t, body, genErr.Diagnostic)
}

func TestToResponseParts(t *testing.T) {
	parts := toResponseParts([]*genai.Part{
		nil,
		{Text: "hello"},
		{InlineData: &genai.Blob{MIMEType: "image/png"}},
		{InlineData: &genai.Blob{MIMEType: "image/webp", Data: []byte("x")}},
		{},
	})

	require.Len(t, parts, 2)
	assert.Equal(t, textPart{Value: "hello"}, parts[0])
	assert.Equal(t, binaryPart{MIMEType: "image/webp", Data: []byte("x")}, parts[1])
}
