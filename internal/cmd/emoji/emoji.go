// Package emoji provides symbol constants for CLI output.
package emoji

// Symbols used for status lines printed by commands.
const (
	// Success marks a completed operation.
	Success = "✓"

	// Error marks a failed operation.
	Error = "✗"

	// Stop marks a shutdown in progress.
	Stop = "✗"

	// Info marks informational output.
	Info = "i"
)
