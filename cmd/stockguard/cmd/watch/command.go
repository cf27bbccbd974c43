// Package watch provides a command that prints the live event feed of a
// running stockguard server.
package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/stockguard/cmd/application"
)

// DefaultURL is the feed endpoint of a locally running server.
const DefaultURL = "ws://localhost:8000/api/v1/ws"

// NewCommand creates the watch command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print real-time events from a running server",
		Long: `Connect to the WebSocket feed of a running StockGuard server and print
every message as one JSON line until interrupted or the server closes the
connection.`,
		Example: `  stockguard watch
  stockguard watch --url ws://inventory.internal:8000/api/v1/ws`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := cmd.Flags().GetString("url")
			if err != nil {
				return err
			}
			timeout, err := cmd.Flags().GetDuration("dial-timeout")
			if err != nil {
				return err
			}
			return Watch(cmd.Context(), url, timeout, cmd.OutOrStdout(), app.Logger())
		},
	}

	cmd.Flags().String("url", DefaultURL, "WebSocket feed URL")
	cmd.Flags().Duration("dial-timeout", 10*time.Second, "Timeout for establishing the connection")

	return cmd
}

// Watch dials url and writes each received message to out as a single JSON
// line. It returns nil when ctx is cancelled or the server closes normally.
func Watch(ctx context.Context, url string, dialTimeout time.Duration, out io.Writer, logger *zerolog.Logger) error {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connecting to %s: %w", url, err)
	}
	defer conn.Close()

	logger.Info().Str("url", url).Msg("Watching events")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	var line bytes.Buffer
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug().Err(err).Msg("Feed closed")
				return nil
			}
			return fmt.Errorf("reading from %s: %w", url, err)
		}

		line.Reset()
		if err := json.Compact(&line, message); err != nil {
			logger.Warn().Err(err).Msg("Skipping non-JSON message")
			continue
		}
		line.WriteByte('\n')
		if _, err := out.Write(line.Bytes()); err != nil {
			return err
		}
	}
}
