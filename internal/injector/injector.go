//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/tickworld/internal/client"
	"github.com/zeusync/tickworld/internal/server"
)

func InitializeServer(path ConfigPath) (*server.Server, error) {
	wire.Build(ServerSet)
	return nil, nil
}

func InitializeClient(path ConfigPath, loader client.MeshLoader, input client.InputSource, hud client.HUD) (*client.Client, error) {
	wire.Build(ClientSet)
	return nil, nil
}
