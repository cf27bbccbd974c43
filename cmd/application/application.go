// Package application defines what stockguard commands need from the
// running application.
//
// Commands accept the Application interface rather than the concrete App so
// they can be tested with a small fake:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            store, err := app.Store()
//	            if err != nil {
//	                return err
//	            }
//	            // ... use store
//	            return nil
//	        },
//	    }
//	}
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/stockguard/pkg/inventory"
)

// Application provides the dependencies that commands need. All methods
// must be safe for concurrent use.
type Application interface {
	// Store returns the inventory store, opening it on first use.
	Store() (inventory.Store, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
