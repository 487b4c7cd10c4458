package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"

	"home-voice/config"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	configPath := cli.StringP("config", "c", "config.yaml", "path to config file")
	envPath := cli.StringP("env", "e", ".env", "path to env file")
	logLevel := cli.StringP("log", "l", "", "log level override (debug, info, warn, error)")
	cli.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("loading env file", "path", *envPath, "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := setupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting home voice assistant",
		"audio_source", cfg.Audio.Source,
		"stt", cfg.STT.Provider,
		"classifier", cfg.Classifier.Provider,
		"answers", cfg.Answer.Provider,
	)

	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
	logger.Info("assistant stopped")
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	level, ok := logLevelMap[cfg.Level]
	if !ok {
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	}

	return slog.New(handler)
}
