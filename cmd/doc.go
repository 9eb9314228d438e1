// Package cmd implements the command-line interface for the unikv toolkit.
// It provides a hierarchical command structure for interacting with the
// configured storage backend and for working with key templates.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (get, set, delete, etc.)
//   - tmpl: Commands for rendering and validating key templates
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See unikv -help for a list of all commands.
package cmd
