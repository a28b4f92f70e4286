package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayia-hosni/study-sync-backend/internal/config"
	"github.com/ayia-hosni/study-sync-backend/internal/dispatch"
	"github.com/ayia-hosni/study-sync-backend/internal/query"
	"github.com/ayia-hosni/study-sync-backend/internal/server"
	"github.com/ayia-hosni/study-sync-backend/internal/telemetry"
	"github.com/spf13/cobra"
)

var serveConsume bool

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the gRPC query server and the HTTP ingress",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}
		if !serveConsume && cfg.Queue.NATSURL == "" {
			return errors.New("--consume=false needs a durable queue (set STUDYSYNC_NATS_URL)")
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()

		shutdownTracing, err := telemetry.Setup(ctx, cfg.OTel.Endpoint, cfg.OTel.ServiceName)
		if err != nil {
			return err
		}
		reg, m := newRegistry()

		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		svc := query.NewService(st, logger, m)

		sink, err := newDeadLetter(ctx, cfg, logger)
		if err != nil {
			st.Close()
			return err
		}
		publisher, err := newPublisher(cfg, logger, sink, m)
		if err != nil {
			st.Close()
			return err
		}
		queue, err := openQueue(ctx, cfg, logger, sink, m)
		if err != nil {
			publisher.Close()
			st.Close()
			return err
		}

		queueCtx, stopQueue := context.WithCancel(ctx)
		var queueDone <-chan struct{}
		if serveConsume {
			queueDone = runQueue(queueCtx, queue, jobHandler(publisher, cacheOf(st), logger, m), logger)
		} else {
			logger.Info("job consumption disabled, run `studysync worker` to publish queued jobs")
		}
		dispatcher := dispatch.NewDispatcher(queue, logger)

		grpcOpts := server.GRPCOptions{
			MaxMessageSize: cfg.GRPC.MaxMessageSize,
			AuthToken:      cfg.AuthToken,
			Logger:         logger,
		}
		if cfg.GRPC.TLSEnabled {
			grpcOpts.TLSCertFile = cfg.GRPC.TLSCert
			grpcOpts.TLSKeyFile = cfg.GRPC.TLSKey
		}
		grpcServer, err := server.NewGRPCServer(svc, grpcOpts)
		if err != nil {
			stopQueue()
			queue.Close()
			publisher.Close()
			st.Close()
			return err
		}

		lis, err := net.Listen("tcp", cfg.GRPC.Addr())
		if err != nil {
			stopQueue()
			queue.Close()
			publisher.Close()
			st.Close()
			return fmt.Errorf("listen %s: %w", cfg.GRPC.Addr(), err)
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPC.Addr(), "tls", cfg.GRPC.TLSEnabled)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: server.NewHTTPHandler(server.HTTPOptions{
				Dispatcher: dispatcher,
				Gatherer:   reg,
				Ready:      st,
				AuthToken:  cfg.AuthToken,
				Logger:     logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		logger.Info("study-sync server started",
			"grpc_addr", cfg.GRPC.Addr(),
			"http_addr", cfg.HTTP.Addr,
			"auth", cfg.AuthToken != "",
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Ingress first so no new jobs arrive while the queue drains.
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		grpcServer.Stop()
		logger.Info("gRPC server stopped")

		stopQueue()
		if queueDone != nil {
			<-queueDone
		}
		if err := queue.Close(); err != nil {
			logger.Error("error closing job queue", "err", err)
		}
		logger.Info("job queue stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("error flushing traces", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveConsume, "consume", true, "publish queued jobs in this process")
}
