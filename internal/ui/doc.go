// Package ui provides theme and color support for the command-line output.
// It defines color schemes, ANSI escape code functions and lipgloss badges
// for consistent styling across the CLI and the report writers.
//
// This package is a shared dependency for packages that need color output,
// which keeps presentation out of the reduction and lab code.
package ui
