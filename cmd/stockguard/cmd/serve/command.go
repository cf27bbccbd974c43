// Package serve provides the command that runs the stockguard API server.
package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentstation/stockguard/cmd/application"
	"github.com/agentstation/stockguard/internal/cmd/emoji"
	"github.com/agentstation/stockguard/internal/server"
	"github.com/agentstation/stockguard/pkg/constants"
)

// settings maps config keys to the flags that override them.
var settings = map[string]string{
	"server.host":               "host",
	"server.port":               "port",
	"server.prefix":             "prefix",
	"server.cors":               "cors",
	"server.cors_origins":       "cors-origins",
	"server.auth":               "auth",
	"server.auth_header":        "auth-header",
	"server.rate_limit":         "rate-limit",
	"server.cache_ttl":          "cache-ttl",
	"server.heartbeat_interval": "heartbeat-interval",
	"server.write_wait":         "write-wait",
	"server.read_timeout":       "read-timeout",
	"server.write_timeout":      "write-timeout",
	"server.idle_timeout":       "idle-timeout",
	"nats.url":                  "nats-url",
	"nats.subject":              "nats-subject",
	"mqtt.broker":               "mqtt-broker",
	"mqtt.topic":                "mqtt-topic",
}

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start the inventory API server with real-time updates",
		Long: `Start the StockGuard REST API server.

Features:
  - Product and category CRUD under /api/v1
  - WebSocket feed of inventory events and low-stock alerts (/api/v1/ws)
  - Server-Sent Events stream of the same events (/api/v1/updates/stream)
  - Server status heartbeat every 5 seconds
  - Optional forwarding of events to NATS and MQTT
  - CORS, API key authentication and per-IP rate limiting
  - Graceful shutdown that notifies connected clients

Every flag can also be set in the config file or through STOCKGUARD_*
environment variables, e.g. server.port or STOCKGUARD_SERVER_PORT.`,
		Example: `  # Start on the default port 8000
  stockguard serve

  # Persist inventory to a file
  STOCKGUARD_DATA_FILE=inventory.yaml stockguard serve

  # Require an API key for the REST endpoints
  STOCKGUARD_API_KEY=secret stockguard serve --auth

  # Forward events to NATS
  stockguard serve --nats-url nats://localhost:4222`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := parseConfig(cmd, viper.GetViper())
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), app, cfg)
		},
	}

	defaults := server.DefaultConfig()

	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")

	cmd.Flags().Bool("cors", defaults.CORSEnabled, "Enable CORS")
	cmd.Flags().StringSlice("cors-origins", defaults.CORSOrigins, "Allowed CORS origins (comma-separated)")

	cmd.Flags().Bool("auth", defaults.AuthEnabled, "Require an API key on REST endpoints")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "Authentication header name")

	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Duration("cache-ttl", defaults.CacheTTL, "Lifetime of cached list responses")

	cmd.Flags().Duration("heartbeat-interval", defaults.HeartbeatInterval, "Interval between status broadcasts")
	cmd.Flags().Duration("write-wait", defaults.WriteWait, "Deadline for one WebSocket send")

	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	cmd.Flags().String("nats-url", "", "NATS server URL to forward events to")
	cmd.Flags().String("nats-subject", defaults.NATSSubject, "NATS subject prefix")
	cmd.Flags().String("mqtt-broker", "", "MQTT broker URL to forward events to")
	cmd.Flags().String("mqtt-topic", defaults.MQTTTopic, "MQTT topic prefix")

	return cmd
}

// parseConfig resolves the server configuration. Explicit flags win over
// environment variables, which win over the config file.
func parseConfig(cmd *cobra.Command, v *viper.Viper) (server.Config, error) {
	v.SetEnvPrefix("STOCKGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, flag := range settings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return server.Config{}, fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	// plain HTTP_* variables as used by container platforms
	_ = v.BindEnv("server.port", "STOCKGUARD_SERVER_PORT", "HTTP_PORT")
	_ = v.BindEnv("server.host", "STOCKGUARD_SERVER_HOST", "HTTP_HOST")
	_ = v.BindEnv("server.api_key", "STOCKGUARD_API_KEY")

	port, err := parsePort(v.GetString("server.port"))
	if err != nil {
		return server.Config{}, err
	}

	return server.Config{
		Host:              v.GetString("server.host"),
		Port:              port,
		PathPrefix:        v.GetString("server.prefix"),
		CORSEnabled:       v.GetBool("server.cors"),
		CORSOrigins:       v.GetStringSlice("server.cors_origins"),
		AuthEnabled:       v.GetBool("server.auth"),
		AuthHeader:        v.GetString("server.auth_header"),
		APIKey:            v.GetString("server.api_key"),
		RateLimit:         v.GetInt("server.rate_limit"),
		CacheTTL:          v.GetDuration("server.cache_ttl"),
		HeartbeatInterval: v.GetDuration("server.heartbeat_interval"),
		WriteWait:         v.GetDuration("server.write_wait"),
		NATSURL:           v.GetString("nats.url"),
		NATSSubject:       v.GetString("nats.subject"),
		MQTTBroker:        v.GetString("mqtt.broker"),
		MQTTTopic:         v.GetString("mqtt.topic"),
		ReadTimeout:       v.GetDuration("server.read_timeout"),
		WriteTimeout:      v.GetDuration("server.write_timeout"),
		IdleTimeout:       v.GetDuration("server.idle_timeout"),
	}, nil
}

// parsePort safely parses a port string to integer.
func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range: %d", port)
	}
	return port, nil
}

// runServer starts the API server and blocks until ctx is cancelled.
func runServer(ctx context.Context, app application.Application, cfg server.Config) error {
	logger := app.Logger()

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("heartbeat_interval", cfg.HeartbeatInterval).
		Msg("Starting API server")

	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Start()

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		_ = srv.Shutdown(context.Background())
		return fmt.Errorf("listening on %s: %w", httpServer.Addr, err)
	}

	return serveWithGracefulShutdown(ctx, httpServer, listener, srv, logger)
}

// serveWithGracefulShutdown serves on listener until ctx is cancelled, then
// drains HTTP requests and stops the realtime services.
func serveWithGracefulShutdown(ctx context.Context, httpServer *http.Server, listener net.Listener, srv *server.Server, logger *zerolog.Logger) error {
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().
			Str("addr", listener.Addr().String()).
			Msg("HTTP server listening")

		fmt.Printf("%s API server listening on %s\n", emoji.Info, listener.Addr())
		fmt.Println("   Press Ctrl+C to stop")

		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		_ = srv.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received via context")
		fmt.Printf("\n%s Shutting down API server...\n", emoji.Stop)

		// the parent context is already cancelled
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		// realtime first so WebSocket clients get the offline status
		// before hijacked connections are torn down
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("Server stopped gracefully")
		fmt.Printf("%s API server stopped gracefully\n", emoji.Success)
		return nil
	}
}
