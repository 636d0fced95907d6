package grpc

import (
	"context"
	"net"
	"time"

	"github.com/gokigennote/gokigen/internal/logging"
	"github.com/gokigennote/gokigen/internal/rpc"
	"github.com/gokigennote/gokigen/internal/server/models"
	"github.com/gokigennote/gokigen/internal/server/services"
	"google.golang.org/grpc"
)

type UserService interface {
	Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, username string) ([]byte, error)
	Login(ctx context.Context, username string, verifier []byte) (string, *services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	UserIDFromToken(token string) (string, error)
}

type EntryService interface {
	Save(ctx context.Context, userID string, e *models.Entry) error
	LoadPage(ctx context.Context, userID string, limit int, cursor string) (*services.Page, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	BatchMigrate(ctx context.Context, userID string, entries []*models.Entry) (int, error)
}

type ExportService interface {
	Export(ctx context.Context, userID string) (*services.Export, error)
}

// RPCObserver records per-call outcomes.
type RPCObserver interface {
	ObserveRPC(method, code string, d time.Duration)
}

type GRPCServer struct {
	rpc.UnimplementedJournalServiceServer
	address  string
	users    UserService
	entries  EntryService
	exports  ExportService
	observer RPCObserver
	logger   logging.Logger
}

// NewGRPCServer wires the journal service. exports may be nil, in which case
// ExportEntries answers Unavailable.
func NewGRPCServer(a string, l logging.Logger, us UserService, es EntryService, xs ExportService, o RPCObserver) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		users:    us,
		entries:  es,
		exports:  xs,
		observer: o,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor))
	rpc.RegisterJournalServiceServer(srv, s)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())
	return srv.Serve(listen)
}
