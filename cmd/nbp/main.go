// Command nbp is an interactive playground for the Nano Banana Pro image model.
//
//	nbp          start the interactive prompt
//	nbp serve    serve the local JSON API
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	nanobanana "github.com/seiseiai1st/NanoBananaProPlayGround"
	"github.com/seiseiai1st/NanoBananaProPlayGround/internal/config"
	"github.com/seiseiai1st/NanoBananaProPlayGround/internal/logger"
	"github.com/seiseiai1st/NanoBananaProPlayGround/internal/server"
	"github.com/seiseiai1st/NanoBananaProPlayGround/internal/settings"
	"github.com/seiseiai1st/NanoBananaProPlayGround/provider/gemini"
	"github.com/seiseiai1st/NanoBananaProPlayGround/ratelimiter"
)

func main() {
	if err := runMain(os.Args[1:]); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
}

func runMain(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	session, err := newSession(cfg)
	if err != nil {
		return err
	}

	mode := "repl"
	if len(args) > 0 {
		mode = args[0]
	}

	switch mode {
	case "repl":
		return newREPL(session, os.Stdin, os.Stdout).Run(ctx)
	case "serve":
		return serve(ctx, cfg, session)
	case "help", "-h", "--help":
		fmt.Println("usage: nbp [serve]")
		return nil
	default:
		return fmt.Errorf("unknown command %q (usage: nbp [serve])", mode)
	}
}

func newSession(cfg config.Config) (*nanobanana.Session, error) {
	settingsPath := cfg.SettingsPath
	if settingsPath == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			return nil, err
		}
		settingsPath = p
	}

	client := gemini.New(
		gemini.WithBaseURL(cfg.BaseURL),
		gemini.WithModel(cfg.Model),
		gemini.WithLogger(slog.Default()),
	)

	opts := []nanobanana.SessionOption{
		nanobanana.WithLogger(slog.Default()),
		nanobanana.WithCredentialStore(settings.NewFileStore(settingsPath)),
		nanobanana.WithStorage(nanobanana.NewLocalStorage(cfg.OutputDir)),
		nanobanana.WithAPIKey(cfg.APIKey),
		nanobanana.WithHistoryLimit(cfg.HistoryLimit),
		nanobanana.WithExchangeRate(cfg.USDToJPY),
	}
	if cfg.RequestsPerMinute > 0 {
		opts = append(opts, nanobanana.WithRateLimiter(ratelimiter.New(cfg.RequestsPerMinute)))
	}

	slog.Debug("session configured",
		"model", cfg.Model,
		"settings_path", settingsPath,
		"output_dir", cfg.OutputDir,
		"requests_per_minute", cfg.RequestsPerMinute,
	)
	return nanobanana.NewSession(client, opts...), nil
}

func serve(ctx context.Context, cfg config.Config, session *nanobanana.Session) error {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.NewRouter(server.NewHandler(session, slog.Default())),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
