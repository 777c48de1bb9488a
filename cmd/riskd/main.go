package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"shdp-backend/internal/api"
	"shdp-backend/internal/cfg"
	"shdp-backend/internal/disease"
	"shdp-backend/internal/logging"
	"shdp-backend/internal/metrics"
	"shdp-backend/internal/ml"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	closer, err := logging.Setup(c.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("logging setup failed")
	}
	defer closer.Close()

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewWithRegistry(registry)
	mw := metrics.NewWrapper(m)

	models, err := ml.NewRegistry(ml.RegistryConfig{
		ModelsDir:    c.ModelsDir,
		CacheEnabled: c.CacheModels,
		Load: ml.LoadOptions{
			RemoteTimeout:   c.RemoteTimeout,
			BreakerFailures: uint32(c.BreakerFailures),
		},
	}, mw)
	if err != nil {
		log.Fatal().Err(err).Msg("model registry init failed")
	}
	reportModels(models)

	server := api.NewServer(c, models, ml.NewPredictor(mw), api.WithMetrics(m, registry))

	log.Info().
		Str("addr", c.Addr()).
		Str("models_dir", c.ModelsDir).
		Bool("cache_models", c.CacheModels).
		Bool("metrics", c.MetricsEnabled).
		Msg("SHDP backend starting")

	start := time.Now()
	if err := server.Start(ctx); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		closer.Close()
		os.Exit(1)
	}
	log.Info().Dur("uptime", time.Since(start)).Msg("shutdown complete")
}

// reportModels logs which model files are present; missing files are not
// fatal since /predict reports them per request.
func reportModels(models *ml.Registry) {
	for _, t := range disease.Types() {
		info, err := models.Info(string(t))
		if err != nil {
			continue
		}
		if info.Exists {
			log.Info().Str("disease", string(t)).Str("path", info.Path).Msg("model file found")
		} else {
			log.Warn().Str("disease", string(t)).Str("path", info.Path).Msg("model file missing")
		}
	}
}
