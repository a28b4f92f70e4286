package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ayia-hosni/study-sync-backend/internal/client"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	httpURL    string
	authToken  string
	useTLS     bool
	jsonOutput bool
	logFormat  string
	timeout    time.Duration
)

func envOr(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// clientOptions returns the connection options shared by every client command.
func clientOptions() client.Options {
	return client.Options{Token: authToken, TLS: useTLS, Timeout: timeout}
}

func dialQuery() (*client.GRPCClient, error) {
	c, err := client.NewGRPCClient(serverAddr, clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return c, nil
}

var rootCmd = &cobra.Command{
	Use:          "studysync <command>",
	Short:        "Study-sync recommendation integration service",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", envOr("STUDYSYNC_SERVER", "localhost:6001"), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", envOr("STUDYSYNC_HTTP_URL", "http://localhost:8080"), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("STUDYSYNC_AUTH_TOKEN"), "bearer token for service calls")
	rootCmd.PersistentFlags().BoolVar(&useTLS, "tls", false, "use TLS for gRPC")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto", "log encoding for serve and worker (auto, text or json)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout for client commands")

	rootCmd.AddGroup(
		&cobra.Group{ID: "query", Title: "Queries:"},
		&cobra.Group{ID: "events", Title: "Events:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false

	// Queries
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(postsCmd)
	rootCmd.AddCommand(userCmd)

	// Events
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(kindsCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
