package app

import "log/slog"

const serviceName = "signalflow"

// Set via -ldflags "-X github.com/heartmarshall/signalflow-backend/internal/app.Version=..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildAttr groups the build metadata for the startup log line.
func BuildAttr() slog.Attr {
	return slog.Group("build",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("time", BuildTime),
	)
}
