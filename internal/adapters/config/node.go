package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bild/internal/adapters/fetch"
	"go.trai.ch/bild/internal/adapters/fs"
	"go.trai.ch/bild/internal/adapters/logger"
	"go.trai.ch/bild/internal/adapters/shell"
	"go.trai.ch/bild/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the buildfile loader Graft node.
	NodeID graft.ID = "adapter.config_loader"
	// SettingsNodeID is the unique identifier for the user settings Graft node.
	SettingsNodeID graft.ID = "adapter.settings"
)

func init() {
	graft.Register(graft.Node[*Settings]{
		ID:        SettingsNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Settings, error) {
			return LoadSettings(DefaultSettingsPath())
		},
	})

	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, shell.NodeID, fetch.NodeID, fs.NodeID, SettingsNodeID},
		Run: func(ctx context.Context) (ports.ConfigLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			runner, err := graft.Dep[ports.CommandRunner](ctx)
			if err != nil {
				return nil, err
			}
			fetcher, err := graft.Dep[ports.ArtifactFetcher](ctx)
			if err != nil {
				return nil, err
			}
			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := graft.Dep[*Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log, runner, fetcher, fsys, settings), nil
		},
	})
}
