// Command modelserver serves one model artifact over HTTP so that a "remote"
// artifact in another deployment can delegate to it.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"shdp-backend/internal/cfg"
	"shdp-backend/internal/logging"
	"shdp-backend/internal/ml"
)

func main() {
	var (
		modelPath = flag.String("model", "datasets/diabetes_model.json", "Path to the model artifact")
		addr      = flag.String("addr", ":8501", "Listen address")
		timeout   = flag.Duration("timeout", 5*time.Second, "Per-request inference timeout")
		logLevel  = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		logFormat = flag.String("log-format", "console", "Log format: json, console")
	)
	flag.Parse()

	closer, err := logging.Setup(cfg.LogSettings{Level: *logLevel, Format: *logFormat})
	if err != nil {
		log.Fatal().Err(err).Msg("logging setup failed")
	}
	defer closer.Close()

	model, artifact, err := ml.LoadModel(*modelPath, ml.LoadOptions{RemoteTimeout: *timeout})
	if err != nil {
		log.Fatal().Err(err).Str("model_path", *modelPath).Msg("failed to load model")
	}
	if artifact.Kind == ml.KindRemote {
		log.Fatal().Str("model_path", *modelPath).Msg("refusing to proxy a remote artifact")
	}

	server := ml.NewModelServer(model, artifact, *addr, *timeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown model server")
		}
	}()

	log.Info().
		Str("model_path", *modelPath).
		Str("kind", artifact.Kind).
		Str("version", artifact.Version).
		Msg("model loaded")

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("model server failed")
		closer.Close()
		os.Exit(1)
	}
	log.Info().Msg("model server stopped")
}
