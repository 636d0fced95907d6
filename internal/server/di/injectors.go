//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/gokigennote/gokigen/internal/server"
	"github.com/gokigennote/gokigen/internal/server/config"
	"github.com/gokigennote/gokigen/internal/server/metrics"
	"github.com/gokigennote/gokigen/internal/server/services"
	"github.com/google/wire"
)

func InitApp(ctx context.Context, cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		server.ProvideLogger,
		server.ProvideDB,
		server.ProvideRedis,
		server.ProvideRepositoryManager,
		server.ProvidePageCache,
		metrics.New,
		services.NewUserService,
		server.ProvideEntryService,
		server.ProvideExportService,
		server.ProvideGRPCServer,
		server.ProvideHTTPServer,
		server.NewApp,
	)
	return nil, nil, nil
}
