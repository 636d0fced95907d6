package grpc

import (
	"context"
	"errors"

	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/rpc"
	"github.com/gokigennote/gokigen/internal/server/models"
	"github.com/gokigennote/gokigen/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC codes. Internal details are not
// sent to the caller.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrValidationEmpty),
		errors.Is(err, common.ErrInvalidEntry),
		errors.Is(err, services.ErrInvalidCursor):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	case errors.Is(err, common.ErrVersionConflict):
		return status.Error(codes.PermissionDenied, "entry belongs to another user")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func fromWire(e rpc.Entry) *models.Entry {
	return &models.Entry{
		ID:               e.ID,
		Date:             e.Date,
		UpdatedAt:        e.UpdatedAt,
		Mood:             e.Mood,
		OriginalText:     e.OriginalText,
		ReformulatedText: e.ReformulatedText,
		EmpathyText:      e.EmpathyText,
		NextStep:         e.NextStep,
	}
}

func toWire(e *models.Entry) rpc.Entry {
	return rpc.Entry{
		ID:               e.ID,
		Date:             e.Date,
		UpdatedAt:        e.UpdatedAt,
		Mood:             e.Mood,
		OriginalText:     e.OriginalText,
		ReformulatedText: e.ReformulatedText,
		EmpathyText:      e.EmpathyText,
		NextStep:         e.NextStep,
	}
}

func (s *GRPCServer) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	u, err := s.users.Register(ctx, req.Username, req.Salt, req.Verifier)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Registered", "user_id", u.ID)
	return &rpc.RegisterResponse{UserID: u.ID}, nil
}

func (s *GRPCServer) GetSalt(ctx context.Context, req *rpc.GetSaltRequest) (*rpc.GetSaltResponse, error) {
	salt, err := s.users.GetSalt(ctx, req.Username)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.GetSaltResponse{Salt: salt}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	userID, tokens, err := s.users.Login(ctx, req.Username, req.Verifier)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.LoginResponse{UserID: userID, AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*rpc.RefreshTokenResponse, error) {
	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Ping(context.Context, *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) SaveEntry(ctx context.Context, req *rpc.SaveEntryRequest) (*rpc.SaveEntryResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.entries.Save(ctx, userID, fromWire(req.Entry)); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.SaveEntryResponse{}, nil
}

func (s *GRPCServer) LoadPage(ctx context.Context, req *rpc.LoadPageRequest) (*rpc.LoadPageResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.entries.LoadPage(ctx, userID, req.Limit, req.Cursor)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]rpc.Entry, 0, len(page.Entries))
	for _, e := range page.Entries {
		out = append(out, toWire(e))
	}
	return &rpc.LoadPageResponse{Entries: out, NextCursor: page.NextCursor}, nil
}

func (s *GRPCServer) DeleteEntry(ctx context.Context, req *rpc.DeleteEntryRequest) (*rpc.DeleteEntryResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.entries.Delete(ctx, userID, req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.DeleteEntryResponse{}, nil
}

func (s *GRPCServer) DeleteAll(ctx context.Context, _ *rpc.DeleteAllRequest) (*rpc.DeleteAllResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.entries.DeleteAll(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Deleted all entries", "user_id", userID, "count", n)
	return &rpc.DeleteAllResponse{Deleted: n}, nil
}

func (s *GRPCServer) BatchMigrate(ctx context.Context, req *rpc.BatchMigrateRequest) (*rpc.BatchMigrateResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]*models.Entry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, fromWire(e))
	}
	n, err := s.entries.BatchMigrate(ctx, userID, entries)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Migrated entries", "user_id", userID, "count", n)
	return &rpc.BatchMigrateResponse{Migrated: n}, nil
}

func (s *GRPCServer) ExportEntries(ctx context.Context, _ *rpc.ExportEntriesRequest) (*rpc.ExportEntriesResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if s.exports == nil {
		return nil, status.Error(codes.Unavailable, "export is not configured")
	}
	exp, err := s.exports.Export(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ExportEntriesResponse{URL: exp.URL, Key: exp.Key, Count: exp.Count, ExpiresAt: exp.ExpiresAt}, nil
}
