// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/ppy/osu-server-spectator-sub002/pkg/config"
	"github.com/ppy/osu-server-spectator-sub002/pkg/envelope"
	"github.com/ppy/osu-server-spectator-sub002/pkg/interop"
	"github.com/ppy/osu-server-spectator-sub002/pkg/metrics"
	"github.com/ppy/osu-server-spectator-sub002/pkg/notify"
	"github.com/ppy/osu-server-spectator-sub002/pkg/persistence"
	"github.com/ppy/osu-server-spectator-sub002/pkg/persistence/migrations"
	"github.com/ppy/osu-server-spectator-sub002/pkg/ratings"
	"github.com/ppy/osu-server-spectator-sub002/pkg/rooms"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mp-server",
		Short: "Multiplayer room server core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("server exited with error")
	}
}

func run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.ZipkinEndpoint != "" {
		exporter, err := zipkin.New(cfg.ZipkinEndpoint)
		if err != nil {
			return err
		}
		provider := trace.NewTracerProvider(trace.WithBatcher(exporter))
		otel.SetTracerProvider(provider)
		defer provider.Shutdown(context.Background())
	}

	store, err := persistence.NewPostgresStore(context.Background(), cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := migrations.Up(cfg.DatabaseDSN); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	collection := metrics.NewMetrics(registry)

	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("metrics listener failed")
		}
	}()
	defer metricsServer.Shutdown(context.Background())

	notifier := notify.NewRedisNotifier(cfg.RedisAddr)
	defer notifier.Close()

	hub := rooms.NewHub(cfg, store, notifier, ratings.NewTrueSkillEngine(), interop.NewClient(cfg), collection)

	logrus.Info("room server started")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	<-signals

	scope := envelope.NewRootScope(context.Background(), "shutdown", "")
	defer scope.Finish()
	hub.Shutdown(scope)

	return nil
}
