// Package server exposes a Session over a local JSON API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	nanobanana "github.com/seiseiai1st/NanoBananaProPlayGround"
	"github.com/seiseiai1st/NanoBananaProPlayGround/internal/logger"
)

// Handler serves one Session.
type Handler struct {
	session *nanobanana.Session
	logger  *slog.Logger
}

// NewHandler creates a Handler for session.
func NewHandler(session *nanobanana.Session, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{session: session, logger: logger}
}

// NewRouter returns a router with every route registered.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes adds the API routes to r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/options", h.getOptions).Methods(http.MethodGet)
	r.HandleFunc("/api/settings", h.getSettings).Methods(http.MethodGet)
	r.HandleFunc("/api/settings", h.putSettings).Methods(http.MethodPut)
	r.HandleFunc("/api/reference", h.putReference).Methods(http.MethodPut)
	r.HandleFunc("/api/reference", h.deleteReference).Methods(http.MethodDelete)
	r.HandleFunc("/api/generate", h.generate).Methods(http.MethodPost)
	r.HandleFunc("/api/image", h.currentImage).Methods(http.MethodGet)
	r.HandleFunc("/api/history", h.listHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/history/{index:[0-9]+}/select", h.selectHistory).Methods(http.MethodPost)
	r.HandleFunc("/api/history/{index:[0-9]+}/image", h.historyImage).Methods(http.MethodGet)
	r.HandleFunc("/api/cost", h.getCost).Methods(http.MethodGet)
}

type settingsBody struct {
	APIKey      *string `json:"apiKey,omitempty"`
	AspectRatio *string `json:"aspectRatio,omitempty"`
	Resolution  *string `json:"resolution,omitempty"`
}

type settingsView struct {
	APIKey      string         `json:"apiKey"`
	APIKeySet   bool           `json:"apiKeySet"`
	AspectRatio string         `json:"aspectRatio"`
	Resolution  string         `json:"resolution"`
	Reference   *referenceView `json:"reference,omitempty"`
}

type referenceView struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int    `json:"size"`
}

type generateBody struct {
	Prompt string `json:"prompt"`
}

type imageView struct {
	Prompt    string    `json:"prompt"`
	MIMEType  string    `json:"mimeType"`
	Size      int       `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

type generateView struct {
	imageView
	Cost costView `json:"cost"`
}

type costView struct {
	LastUSD  float64 `json:"lastUsd"`
	LastJPY  int64   `json:"lastJpy"`
	TotalUSD float64 `json:"totalUsd"`
	TotalJPY int64   `json:"totalJpy"`
	Count    int     `json:"count"`
}

type failureView struct {
	Kind       string `json:"kind,omitempty"`
	Status     int    `json:"status,omitempty"`
	Message    string `json:"message"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getOptions(w http.ResponseWriter, r *http.Request) {
	model := h.session.Model()
	prices := make(map[string]float64, len(model.Pricing.PerImage))
	for res, c := range model.Pricing.PerImage {
		prices[res.String()] = c.USD()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model":             model.APIModelName,
		"aspectRatios":      model.ImageConstraints.SupportedAspectRatios,
		"resolutions":       model.ImageConstraints.SupportedResolutions,
		"pricesUsd":         prices,
		"referenceImageUsd": model.Pricing.ReferenceImage.USD(),
	})
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settingsView())
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if body.AspectRatio != nil {
		ratio, err := nanobanana.ParseAspectRatio(*body.AspectRatio)
		if err == nil {
			err = h.session.SetAspectRatio(ratio)
		}
		if err != nil {
			writeFailure(w, http.StatusBadRequest, err)
			return
		}
	}
	if body.Resolution != nil {
		res, err := nanobanana.ParseResolution(*body.Resolution)
		if err == nil {
			err = h.session.SetResolution(res)
		}
		if err != nil {
			writeFailure(w, http.StatusBadRequest, err)
			return
		}
	}
	if body.APIKey != nil {
		if err := h.session.SetAPIKey(*body.APIKey); err != nil {
			h.logger.Error("failed to persist API key", logger.Err(err))
			writeFailure(w, http.StatusInternalServerError, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, h.settingsView())
}

func (h *Handler) putReference(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, nanobanana.MaxImageSize+1))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err)
		return
	}

	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = nanobanana.DetectMIMEType(r.URL.Query().Get("name"), data)
	}

	img := &nanobanana.ReferenceImage{
		Data:     data,
		MIMEType: mimeType,
		Name:     r.URL.Query().Get("name"),
		Size:     len(data),
	}
	if err := h.session.SetReference(img); err != nil {
		writeFailure(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.settingsView())
}

func (h *Handler) deleteReference(w http.ResponseWriter, r *http.Request) {
	h.session.ClearReference()
	writeJSON(w, http.StatusOK, h.settingsView())
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var body generateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	entry, err := h.session.Generate(r.Context(), body.Prompt)
	if err != nil {
		writeFailure(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, generateView{
		imageView: toImageView(*entry),
		Cost:      h.costView(),
	})
}

func (h *Handler) currentImage(w http.ResponseWriter, r *http.Request) {
	img, ok := h.session.Current()
	if !ok {
		writeFailure(w, http.StatusNotFound, nanobanana.ErrNoImage)
		return
	}
	writeImage(w, img)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	entries := lo.Map(h.session.History(), func(e nanobanana.HistoryEntry, _ int) imageView {
		return toImageView(e)
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"selected": h.session.Selected(),
		"entries":  entries,
	})
}

func (h *Handler) selectHistory(w http.ResponseWriter, r *http.Request) {
	index, _ := strconv.Atoi(mux.Vars(r)["index"])
	entry, err := h.session.Select(index)
	if err != nil {
		writeFailure(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, toImageView(entry))
}

func (h *Handler) historyImage(w http.ResponseWriter, r *http.Request) {
	index, _ := strconv.Atoi(mux.Vars(r)["index"])
	entry, err := lo.Nth(h.session.History(), index)
	if err != nil {
		writeFailure(w, http.StatusNotFound, fmt.Errorf("%w: %d", nanobanana.ErrHistoryIndex, index))
		return
	}
	writeImage(w, entry.Image)
}

func (h *Handler) getCost(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.costView())
}

func (h *Handler) settingsView() settingsView {
	s := h.session.Settings()
	v := settingsView{
		APIKey:      logger.MaskSecret(s.APIKey),
		APIKeySet:   s.APIKey != "",
		AspectRatio: s.AspectRatio.String(),
		Resolution:  s.Resolution.String(),
	}
	if s.Reference != nil {
		v.Reference = &referenceView{
			Name:     s.Reference.Name,
			MIMEType: s.Reference.MIMEType,
			Size:     s.Reference.Size,
		}
	}
	return v
}

func (h *Handler) costView() costView {
	c := h.session.Costs()
	rate := h.session.ExchangeRate()
	return costView{
		LastUSD:  c.Last.USD(),
		LastJPY:  c.Last.ToJPY(rate),
		TotalUSD: c.Total.USD(),
		TotalJPY: c.Total.ToJPY(rate),
		Count:    c.Count,
	}
}

func toImageView(e nanobanana.HistoryEntry) imageView {
	return imageView{
		Prompt:    e.Prompt,
		MIMEType:  e.Image.MIMEType,
		Size:      len(e.Image.Data),
		Timestamp: e.Timestamp,
	}
}

// statusFor maps session errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, nanobanana.ErrBusy):
		return http.StatusConflict
	case nanobanana.IsRateLimitError(err):
		return http.StatusTooManyRequests
	case nanobanana.KindOf(err) != 0:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func writeImage(w http.ResponseWriter, img nanobanana.GeneratedImage) {
	name := nanobanana.DownloadFilename(img.MIMEType, time.Now())
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func writeFailure(w http.ResponseWriter, status int, err error) {
	v := failureView{Message: err.Error()}
	if genErr, ok := nanobanana.AsGenerationError(err); ok {
		v.Kind = genErr.Kind.String()
		v.Status = genErr.StatusCode
		v.Message = genErr.Message()
		v.Diagnostic = genErr.Diagnostic
	}
	writeJSON(w, status, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
