// Package constants provides shared constants used throughout the stockguard
// codebase: timeouts, limits, file permissions and inventory defaults.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// HeartbeatInterval is the period between status broadcasts
	HeartbeatInterval = 5 * time.Second

	// WriteWait is the time allowed to write one message to a WebSocket peer
	WriteWait = 10 * time.Second

	// PongWait is the time allowed to read the next pong from a WebSocket peer
	PongWait = 60 * time.Second

	// PingPeriod must be less than PongWait
	PingPeriod = (PongWait * 9) / 10

	// ShutdownTimeout bounds graceful HTTP server shutdown
	ShutdownTimeout = 30 * time.Second

	// DefaultCacheTTL is the default lifetime of cached list responses
	DefaultCacheTTL = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxMessageSize is the largest inbound WebSocket frame accepted
	MaxMessageSize = 512

	// MaxConcurrentSends caps the goroutines used by one broadcast
	MaxConcurrentSends = 64

	// EventQueueSize is the buffer depth of the event broker
	EventQueueSize = 256

	// DefaultPageSize is the default number of items per page for paginated results
	DefaultPageSize = 100

	// MaxPageSize is the maximum number of items per page
	MaxPageSize = 1000

	// MaxNameLength is the maximum allowed length for product and category names
	MaxNameLength = 256

	// MaxDescriptionLength is the maximum allowed length for descriptions
	MaxDescriptionLength = 4096
)

// Inventory defaults
const (
	// DefaultLowStockThreshold applies when a product is created without one
	DefaultLowStockThreshold = 5
)
