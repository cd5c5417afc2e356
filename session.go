package nanobanana

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/seiseiai1st/NanoBananaProPlayGround/ratelimiter"
)

// DefaultHistoryLimit is how many successful generations a session keeps.
const DefaultHistoryLimit = 20

// Settings is a snapshot of the user's current choices.
type Settings struct {
	APIKey      string
	AspectRatio AspectRatio
	Resolution  Resolution
	Reference   *ReferenceImage
}

// Session owns the state of one interactive run: settings, the displayed
// image, the history and the running cost. At most one generation is in
// flight at a time; all other state is guarded by mu.
type Session struct {
	generator   ImageGenerator
	credentials CredentialStore
	storage     Storage
	limiter     ratelimiter.Limiter
	logger      *slog.Logger

	historyLimit int
	usdToJPY     float64
	initialKey   string
	now          func() time.Time

	busy atomic.Bool

	mu          sync.RWMutex
	settings    Settings
	current     *GeneratedImage
	selected    int
	history     []HistoryEntry
	costSummary CostSummary
}

// NewSession creates a Session around generator. The API key is read back
// from the credential store when one is configured and holds a key.
func NewSession(generator ImageGenerator, opts ...SessionOption) *Session {
	s := &Session{
		generator:    generator,
		logger:       slog.Default(),
		historyLimit: DefaultHistoryLimit,
		usdToJPY:     DefaultUSDToJPY,
		now:          time.Now,
		selected:     -1,
		settings: Settings{
			AspectRatio: DefaultAspectRatio,
			Resolution:  DefaultResolution,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.settings.APIKey = s.initialKey
	if s.credentials != nil {
		stored, err := s.credentials.Load()
		switch {
		case err != nil:
			s.logger.Warn("failed to load stored API key", "error", err.Error())
		case stored != "":
			s.settings.APIKey = stored
		}
	}

	return s
}

// Generate runs one generation with the current settings. On success the
// image becomes current, is prepended to the history and its cost is
// charged. On failure nothing in the session changes and the error is
// returned as-is; generation failures are *GenerationError.
func (s *Session) Generate(ctx context.Context, prompt string) (*HistoryEntry, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.busy.Store(false)

	req := s.newRequest(prompt)
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	model := s.generator.Model()
	if len(model.ImageConstraints.SupportedAspectRatios) > 0 && !model.Supports(req.AspectRatio, req.Resolution) {
		return nil, fmt.Errorf("%w: %s does not support %s at %s",
			ErrInvalidRequest, model.APIModelName, req.AspectRatio, req.Resolution)
	}

	if s.limiter != nil && !s.limiter.TryConsume(1) {
		err := &RateLimitError{
			RetryAfter: s.limiter.TimeUntilAvailable(1),
			Model:      model.APIModelName,
		}
		s.logger.Warn("request limit hit", "model", model.APIModelName, "error", err.Error())
		return nil, err
	}

	start := time.Now()

	s.logger.Debug("starting image generation",
		"model", model.APIModelName,
		"prompt_length", len(prompt),
		"aspect_ratio", req.AspectRatio.String(),
		"resolution", req.Resolution.String(),
		"has_reference", req.HasReference(),
	)

	img, err := s.generator.Generate(ctx, req)
	duration := time.Since(start)

	if err == nil && (img == nil || len(img.Data) == 0) {
		err = &GenerationError{Kind: NoImagePart, Diagnostic: "generator returned no image data"}
	}
	if err != nil {
		attrs := []any{
			"model", model.APIModelName,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		}
		if genErr, ok := AsGenerationError(err); ok {
			attrs = append(attrs, "kind", genErr.Kind.String(), "status", genErr.StatusCode)
		}
		s.logger.Error("generation failed", attrs...)

		return nil, err
	}

	cost := s.costOf(model, req)
	entry := HistoryEntry{
		Image:     *img,
		Prompt:    prompt,
		Timestamp: s.now(),
	}

	s.mu.Lock()
	s.current = &entry.Image
	s.selected = -1
	s.history = lo.Subset(append([]HistoryEntry{entry}, s.history...), 0, uint(s.historyLimit))
	s.costSummary.Last = cost
	s.costSummary.Total += cost
	s.costSummary.Count++
	total := s.costSummary.Total
	s.mu.Unlock()

	s.logger.Info("generation completed",
		"model", model.APIModelName,
		"duration_ms", duration.Milliseconds(),
		"mime_type", img.MIMEType,
		"image_bytes", len(img.Data),
		"cost", cost.String(),
		"total_cost", total.String(),
	)

	return &entry, nil
}

// CanGenerate reports whether a generation could start now. It does not
// consume request capacity.
func (s *Session) CanGenerate(prompt string) bool {
	s.mu.RLock()
	key := s.settings.APIKey
	s.mu.RUnlock()

	if strings.TrimSpace(key) == "" || strings.TrimSpace(prompt) == "" || s.busy.Load() {
		return false
	}
	return s.limiter == nil || s.limiter.HasCapacity(1)
}

// Busy reports whether a generation is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Settings returns a snapshot of the current settings.
func (s *Session) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetAPIKey changes the API key and persists it when non-empty.
func (s *Session) SetAPIKey(key string) error {
	s.mu.Lock()
	s.settings.APIKey = key
	s.mu.Unlock()

	if key == "" || s.credentials == nil {
		return nil
	}
	if err := s.credentials.Save(key); err != nil {
		return fmt.Errorf("saving API key: %w", err)
	}
	return nil
}

// SetAspectRatio changes the aspect ratio used by the next generation.
func (s *Session) SetAspectRatio(ratio AspectRatio) error {
	if !ratio.Valid() {
		return fmt.Errorf("%w: aspect ratio %q", ErrInvalidRequest, ratio)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.AspectRatio = ratio
	return nil
}

// SetResolution changes the resolution used by the next generation.
func (s *Session) SetResolution(res Resolution) error {
	if !res.Valid() {
		return fmt.Errorf("%w: resolution %q", ErrInvalidRequest, res)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Resolution = res
	return nil
}

// SetReference attaches a reference image to subsequent generations.
func (s *Session) SetReference(img *ReferenceImage) error {
	if img == nil {
		s.ClearReference()
		return nil
	}
	if err := ValidateReferenceImage(*img); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Reference = img
	return nil
}

// ClearReference removes the reference image.
func (s *Session) ClearReference() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Reference = nil
}

// History returns the retained entries, most recent first.
func (s *Session) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	historyCopy := make([]HistoryEntry, len(s.history))
	copy(historyCopy, s.history)
	return historyCopy
}

// Select re-displays a history entry without generating again.
func (s *Session) Select(index int) (HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.history) {
		return HistoryEntry{}, fmt.Errorf("%w: %d", ErrHistoryIndex, index)
	}
	entry := s.history[index]
	s.current = &entry.Image
	s.selected = index
	return entry, nil
}

// Current returns the displayed image, if any.
func (s *Session) Current() (GeneratedImage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return GeneratedImage{}, false
	}
	return *s.current, true
}

// Selected returns the selected history index, or -1 when the displayed
// image is the latest generation.
func (s *Session) Selected() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Costs returns the session's cost summary.
func (s *Session) Costs() CostSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.costSummary
}

// ExchangeRate returns the USD to JPY rate used for display.
func (s *Session) ExchangeRate() float64 {
	return s.usdToJPY
}

// Model returns the generator's model info.
func (s *Session) Model() ModelInfo {
	return s.generator.Model()
}

// Download saves the current image (index -1) or a history entry to the
// configured storage and returns where it was written.
func (s *Session) Download(ctx context.Context, index int, name string) (string, error) {
	var img GeneratedImage
	if index < 0 {
		cur, ok := s.Current()
		if !ok {
			return "", ErrNoImage
		}
		img = cur
	} else {
		s.mu.RLock()
		entry, err := lo.Nth(s.history, index)
		s.mu.RUnlock()
		if err != nil {
			return "", fmt.Errorf("%w: %d", ErrHistoryIndex, index)
		}
		img = entry.Image
	}

	path, err := SaveImage(ctx, s.storage, img, name)
	if err != nil {
		return "", err
	}
	s.logger.Info("image saved", "path", path, "mime_type", img.MIMEType, "bytes", len(img.Data))
	return path, nil
}

// newRequest snapshots the settings into a fresh request.
func (s *Session) newRequest(prompt string) *GenerationRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &GenerationRequest{
		APIKey:      s.settings.APIKey,
		Prompt:      prompt,
		AspectRatio: s.settings.AspectRatio,
		Resolution:  s.settings.Resolution,
		Reference:   s.settings.Reference,
	}
}

// costOf prices one generation with the model's pricing, falling back to
// the default cost table.
func (s *Session) costOf(model ModelInfo, req *GenerationRequest) Cost {
	if len(model.Pricing.PerImage) > 0 {
		return model.Pricing.Cost(req.Resolution, req.HasReference())
	}
	return CalculateCost(req.Resolution, req.HasReference())
}
