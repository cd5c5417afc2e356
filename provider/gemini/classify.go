package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"

	nanobanana "github.com/seiseiai1st/NanoBananaProPlayGround"
	"google.golang.org/genai"
)

// responsePart is one element of a candidate's content, reduced to the two
// shapes the classifier cares about.
type responsePart interface {
	isResponsePart()
}

type binaryPart struct {
	MIMEType string
	Data     []byte
}

type textPart struct {
	Value string
}

func (binaryPart) isResponsePart() {}
func (textPart) isResponsePart()   {}

// toResponseParts drops parts that carry neither image bytes nor text.
func toResponseParts(parts []*genai.Part) []responsePart {
	out := make([]responsePart, 0, len(parts))
	for _, p := range parts {
		switch {
		case p == nil:
		case p.InlineData != nil && len(p.InlineData.Data) > 0:
			out = append(out, binaryPart{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data})
		case p.Text != "":
			out = append(out, textPart{Value: p.Text})
		}
	}
	return out
}

// exchange is what one HTTP round trip produced.
type exchange struct {
	status int
	body   []byte
}

func (x exchange) fail(kind nanobanana.FailureKind, diagnostic string) *nanobanana.GenerationError {
	return &nanobanana.GenerationError{
		Kind:       kind,
		StatusCode: x.status,
		Diagnostic: diagnostic,
	}
}

// withBody appends the raw response body to a diagnostic line.
func (x exchange) withBody(line string) string {
	return line + "\n\n--- response body ---\n" + string(x.body)
}

// classify turns a completed exchange into an image or a GenerationError.
// The guards run in a fixed order and the first one that fires decides the
// outcome: status, candidates, finish reason, parts, then the part scan.
func classify(x exchange) (*nanobanana.GeneratedImage, error) {
	if err := checkStatus(x); err != nil {
		return nil, err
	}

	resp, err := decodeResponse(x)
	if err != nil {
		return nil, err
	}

	if err := checkCandidates(x, resp); err != nil {
		return nil, err
	}

	// Only the first candidate is authoritative.
	candidate := resp.Candidates[0]

	if err := checkFinishReason(x, candidate); err != nil {
		return nil, err
	}

	if err := checkParts(x, candidate); err != nil {
		return nil, err
	}

	return scanParts(x, toResponseParts(candidate.Content.Parts))
}

// checkStatus rejects non-2xx responses. The body is kept verbatim and is
// not parsed.
func checkStatus(x exchange) error {
	if x.status >= 200 && x.status < 300 {
		return nil
	}
	return x.fail(nanobanana.HTTPStatus, string(x.body))
}

func decodeResponse(x exchange) (*genai.GenerateContentResponse, error) {
	// A top-level null has no candidates. genai's decoder cannot take it.
	if string(bytes.TrimSpace(x.body)) == "null" {
		return nil, x.fail(nanobanana.EmptyResponse, x.withBody("no candidates"))
	}

	var resp genai.GenerateContentResponse
	if err := json.Unmarshal(x.body, &resp); err != nil {
		return nil, x.fail(nanobanana.EmptyResponse, x.withBody(fmt.Sprintf("unreadable response: %v", err)))
	}
	return &resp, nil
}

func checkCandidates(x exchange, resp *genai.GenerateContentResponse) error {
	if len(resp.Candidates) > 0 {
		return nil
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return x.fail(nanobanana.Blocked, x.withBody("block reason: "+string(resp.PromptFeedback.BlockReason)))
	}
	return x.fail(nanobanana.EmptyResponse, x.withBody("no candidates"))
}

func checkFinishReason(x exchange, candidate *genai.Candidate) error {
	if candidate == nil || candidate.FinishReason == "" || candidate.FinishReason == genai.FinishReasonStop {
		return nil
	}
	return x.fail(nanobanana.Truncated, x.withBody("finishReason: "+string(candidate.FinishReason)))
}

func checkParts(x exchange, candidate *genai.Candidate) error {
	if candidate != nil && candidate.Content != nil && len(candidate.Content.Parts) > 0 {
		return nil
	}
	return x.fail(nanobanana.EmptyResponse, x.withBody("empty parts"))
}

// scanParts returns the first image part. Without one, the first text part
// explains what the model did instead.
func scanParts(x exchange, parts []responsePart) (*nanobanana.GeneratedImage, error) {
	var firstText *textPart

	for _, p := range parts {
		switch p := p.(type) {
		case binaryPart:
			mimeType := p.MIMEType
			if mimeType == "" {
				mimeType = nanobanana.DefaultImageMIMEType
			}
			return &nanobanana.GeneratedImage{Data: p.Data, MIMEType: mimeType}, nil
		case textPart:
			if firstText == nil {
				firstText = &p
			}
		}
	}

	if firstText != nil {
		return nil, x.fail(nanobanana.TextOnlyFallback, x.withBody("text response: "+firstText.Value))
	}
	return nil, x.fail(nanobanana.NoImagePart, string(x.body))
}
