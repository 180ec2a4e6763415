//go:build linux

package main

import (
	"log/slog"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/collectors/procfs"
)

func registerPlatformSources(reg *collectors.Registry, logger *slog.Logger) {
	reg.Register(procfs.New(procfs.Options{Logger: logger}))
}
