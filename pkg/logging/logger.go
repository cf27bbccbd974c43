// Package logging provides structured logging for stockguard using zerolog.
// Console output is used when writing to a terminal, JSON otherwise.
//
// Example usage:
//
//	logger := logging.NewLoggerFromConfig(&logging.Config{Level: "debug"})
//	logger.Info().Int64("product_id", 7).Msg("Product updated")
//
//	ctx := logging.WithLogger(context.Background(), &logger)
//	logging.FromContext(ctx).Debug().Msg("Using logger from context")
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger is the global logger instance.
var defaultLogger = NewLoggerFromConfig(&Config{
	Level:  getEnvOrDefault("LOG_LEVEL", "info"),
	Format: getEnvOrDefault("LOG_FORMAT", "auto"),
	Output: "stderr",
})

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}
