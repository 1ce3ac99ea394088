// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/bild/internal/adapters/buildlog"
	_ "go.trai.ch/bild/internal/adapters/config"
	_ "go.trai.ch/bild/internal/adapters/fetch"
	_ "go.trai.ch/bild/internal/adapters/fs"
	_ "go.trai.ch/bild/internal/adapters/linear"
	_ "go.trai.ch/bild/internal/adapters/logger"
	_ "go.trai.ch/bild/internal/adapters/shell"
	// Register app nodes.
	_ "go.trai.ch/bild/internal/app"
)
