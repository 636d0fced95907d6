package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/gokigennote/gokigen/internal/logging"
	"github.com/gokigennote/gokigen/internal/server/config"
	gs "github.com/gokigennote/gokigen/internal/server/grpc"
	"github.com/gokigennote/gokigen/internal/server/httpapi"
	"github.com/gokigennote/gokigen/internal/server/metrics"
	"github.com/gokigennote/gokigen/internal/server/pagecache"
	"github.com/gokigennote/gokigen/internal/server/repositories/repomanager"
	"github.com/gokigennote/gokigen/internal/server/services"
	"github.com/gokigennote/gokigen/internal/server/storage"
	"github.com/redis/go-redis/v9"
)

func ProvideLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.New(cfg.LogFormat, cfg.LogLevel, os.Stdout)
}

// ProvideDB opens the pgx pool. Connectivity is checked by the health
// endpoint and the first migration, not here.
func ProvideDB(cfg *config.Config) (*sql.DB, func(), error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}

// ProvideRedis returns nil unless refresh tokens are kept in Redis.
func ProvideRedis(cfg *config.Config) (*redis.Client, func()) {
	if cfg.RefreshTokenStore != config.TokenStoreRedis {
		return nil, func() {}
	}
	rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return rc, func() { _ = rc.Close() }
}

func ProvideRepositoryManager(rc *redis.Client) repomanager.RepositoryManager {
	if rc == nil {
		return repomanager.NewPostgresRepositoryManager()
	}
	return repomanager.NewPostgresRepositoryManager(repomanager.WithRedisTokens(rc))
}

func ProvidePageCache(cfg *config.Config) *pagecache.Cache {
	return pagecache.New(cfg.PageCacheBytes, pagecache.DefaultTTL)
}

func ProvideEntryService(db *sql.DB, rm repomanager.RepositoryManager, cache *pagecache.Cache, m *metrics.Metrics) *services.EntryService {
	es := services.NewEntryService(db, rm, cache)
	es.ObserveCache(m)
	return es
}

// ProvideExportService returns nil when object storage cannot be set up;
// the server then runs without exports.
func ProvideExportService(ctx context.Context, cfg *config.Config, db *sql.DB, rm repomanager.RepositoryManager, l logging.Logger) gs.ExportService {
	store, err := storage.NewS3Store(ctx, storage.Options{
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3RootUser,
		SecretKey:    cfg.S3RootPassword,
		BaseEndpoint: cfg.S3BaseEndpoint,
		Bucket:       cfg.S3Bucket,
	})
	if err != nil {
		l.Warn(ctx, "exports disabled", "error", err)
		return nil
	}
	xs, err := services.NewExportService(db, rm, store, cfg.ExportURLTTL)
	if err != nil {
		l.Warn(ctx, "exports disabled", "error", err)
		return nil
	}
	return xs
}

func ProvideGRPCServer(cfg *config.Config, l logging.Logger, us *services.UserService, es *services.EntryService, xs gs.ExportService, m *metrics.Metrics) *gs.GRPCServer {
	return gs.NewGRPCServer(cfg.EndpointAddrGRPC, l, us, es, xs, m)
}

func ProvideHTTPServer(cfg *config.Config, l logging.Logger, m *metrics.Metrics, db *sql.DB) *httpapi.Server {
	return httpapi.NewServer(cfg.EndpointAddrHTTP, httpapi.NewRouter(m.Handler(), db), l)
}
