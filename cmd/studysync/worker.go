package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayia-hosni/study-sync-backend/internal/config"
	"github.com/ayia-hosni/study-sync-backend/internal/dispatch"
	"github.com/ayia-hosni/study-sync-backend/internal/store/cache"
	"github.com/ayia-hosni/study-sync-backend/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var workerMetricsAddr string

var workerCmd = &cobra.Command{
	Use:     "worker",
	Short:   "Publish jobs from the durable queue",
	Long:    "Consumes the JetStream job queue and publishes each job to Kafka. Requires STUDYSYNC_NATS_URL.",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Queue.NATSURL == "" {
			return errors.New("worker needs a durable queue (set STUDYSYNC_NATS_URL)")
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.Setup(ctx, cfg.OTel.Endpoint, cfg.OTel.ServiceName)
		if err != nil {
			return err
		}
		reg, m := newRegistry()

		sink, err := newDeadLetter(ctx, cfg, logger)
		if err != nil {
			return err
		}
		publisher, err := newPublisher(cfg, logger, sink, m)
		if err != nil {
			return err
		}
		defer publisher.Close()

		queue, err := openQueue(ctx, cfg, logger, sink, m)
		if err != nil {
			return err
		}
		defer queue.Close()

		var inv dispatch.Invalidator
		if cfg.Redis.URL != "" {
			rdb, err := cache.Open(ctx, cfg.Redis.URL)
			if err != nil {
				return err
			}
			evictor := cache.NewEvictor(rdb)
			defer evictor.Close()
			inv = evictor
		}

		var metricsServer *http.Server
		if workerMetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			metricsServer = &http.Server{Addr: workerMetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				logger.Info("metrics listening", "addr", workerMetricsAddr)
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server error", "err", err)
				}
			}()
		}

		logger.Info("worker started", "pending_jobs", pendingJobs(ctx, queue))
		<-runQueue(ctx, queue, jobHandler(publisher, inv, logger, m), logger)
		logger.Info("worker stopping", "pending_jobs", pendingJobs(context.Background(), queue))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "err", err)
			}
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("error flushing traces", "err", err)
		}
		return nil
	},
}

// pendingJobs reports the durable backlog, or -1 when it is unknown.
func pendingJobs(ctx context.Context, q dispatch.Queue) int64 {
	js, ok := q.(*dispatch.JetStreamQueue)
	if !ok {
		return -1
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	n, err := js.Pending(ctx)
	if err != nil {
		return -1
	}
	return int64(n)
}

func init() {
	workerCmd.Flags().StringVar(&workerMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
}
