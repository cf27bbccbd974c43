package server

import (
	"time"

	"github.com/agentstation/stockguard/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Authentication settings
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// Performance settings
	RateLimit int // requests per minute per IP, 0 disables
	CacheTTL  time.Duration

	// Realtime settings
	HeartbeatInterval time.Duration
	WriteWait         time.Duration

	// External event buses, disabled when empty
	NATSURL     string
	NATSSubject string
	MQTTBroker  string
	MQTTTopic   string

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:              "localhost",
		Port:              8000,
		PathPrefix:        "/api/v1",
		CORSEnabled:       true,
		CORSOrigins:       []string{"http://localhost:3000"},
		AuthEnabled:       false,
		AuthHeader:        "X-API-Key",
		RateLimit:         600,
		CacheTTL:          constants.DefaultCacheTTL,
		HeartbeatInterval: constants.HeartbeatInterval,
		WriteWait:         constants.WriteWait,
		NATSSubject:       "stockguard",
		MQTTTopic:         "stockguard",
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
