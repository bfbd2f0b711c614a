// Package cli provides shared helpers for the mercury command tree: typed
// command errors, output formatting (text, JSON, CSV), and signal-aware
// contexts for long-running commands.
package cli
