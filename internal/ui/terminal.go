package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether ANSI colors should be used on stdout.
func ShouldUseColor() bool {
	return shouldUseColor(int(os.Stdout.Fd()))
}

// https://no-color.org: any non-empty NO_COLOR disables color.
// CLICOLOR_FORCE=1 forces it even without a TTY; CLICOLOR=0 disables it.
func shouldUseColor(fd int) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	return term.IsTerminal(fd)
}
