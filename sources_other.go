//go:build !linux

package main

import (
	"log/slog"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

// registerPlatformSources adds nothing: the procfs source is Linux-only.
func registerPlatformSources(*collectors.Registry, *slog.Logger) {}
