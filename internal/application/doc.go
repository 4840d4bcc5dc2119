// Package application provides application initialization and dependency wiring.
// It resolves the logging document through config, applies it to a logging
// context, and exposes the emit and pipe operations the CLI drives, keeping
// the main package focused on flag parsing and signal handling.
package application
