package mctraffic

import (
	"log/slog"
)

// logger receives the package's diagnostic output
var logger *slog.Logger = slog.Default()

// SetLogger directs diagnostic output to l; a nil l restores slog.Default()
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}
