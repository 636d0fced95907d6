package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/rpc"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const saltTimeout = 12 * time.Second

// Export is a finished server-side export.
type Export struct {
	URL       string
	Count     int
	ExpiresAt time.Time
}

var _ Client = (*GRPCClient)(nil)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.JournalServiceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = access, refresh
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if rpc.PublicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := s.tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	resp, rerr := s.client.RefreshToken(ctx, &rpc.RefreshTokenRequest{RefreshToken: refresh})
	if rerr != nil {
		return rerr
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)

	return invoker(withAccessToken(ctx, resp.AccessToken), method, req, reply, cc, opts...)
}

func NewGRPCClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.initGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) initGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewJournalServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Register(ctx context.Context, userName string, salt []byte, verifier []byte) error {
	_, err := s.client.Register(ctx, &rpc.RegisterRequest{Username: userName, Salt: salt, Verifier: verifier})
	return s.mapError(err)
}

func (s *GRPCClient) GetSalt(ctx context.Context, userName string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, saltTimeout)
	defer cancel()

	resp, err := s.client.GetSalt(ctx, &rpc.GetSaltRequest{Username: userName})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Salt, nil
}

// Login stores the issued tokens and returns the server's user id.
func (s *GRPCClient) Login(ctx context.Context, userName string, verifier []byte) (string, error) {
	resp, err := s.client.Login(ctx, &rpc.LoginRequest{Username: userName, Verifier: verifier})
	if err != nil {
		return "", s.mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return resp.UserID, nil
}

func (s *GRPCClient) Logout() {
	s.setTokens("", "")
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &rpc.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

// The user is identified by the access token, so userID is not sent.

func (s *GRPCClient) SaveEntry(ctx context.Context, entry models.Entry, _ string) error {
	if err := s.requireLogin(); err != nil {
		return err
	}
	_, err := s.client.SaveEntry(ctx, &rpc.SaveEntryRequest{Entry: ToWire(entry)})
	return s.mapError(err)
}

func (s *GRPCClient) LoadPage(ctx context.Context, _ string, limit int, cursor string) ([]models.Entry, string, error) {
	if err := s.requireLogin(); err != nil {
		return nil, "", err
	}
	resp, err := s.client.LoadPage(ctx, &rpc.LoadPageRequest{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, "", s.mapError(err)
	}
	out := make([]models.Entry, 0, len(resp.Entries))
	for _, w := range resp.Entries {
		e, err := FromWire(w)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", common.ErrDecodeFailure, err)
		}
		out = append(out, e)
	}
	return out, resp.NextCursor, nil
}

func (s *GRPCClient) DeleteEntry(ctx context.Context, id uuid.UUID, _ string) error {
	if err := s.requireLogin(); err != nil {
		return err
	}
	_, err := s.client.DeleteEntry(ctx, &rpc.DeleteEntryRequest{ID: id.String()})
	return s.mapError(err)
}

func (s *GRPCClient) DeleteAll(ctx context.Context, _ string) error {
	if err := s.requireLogin(); err != nil {
		return err
	}
	_, err := s.client.DeleteAll(ctx, &rpc.DeleteAllRequest{})
	return s.mapError(err)
}

func (s *GRPCClient) BatchMigrate(ctx context.Context, entries []models.Entry, _ string) error {
	if err := s.requireLogin(); err != nil {
		return err
	}
	req := &rpc.BatchMigrateRequest{Entries: make([]rpc.Entry, 0, len(entries))}
	for _, e := range entries {
		req.Entries = append(req.Entries, ToWire(e))
	}
	_, err := s.client.BatchMigrate(ctx, req)
	return s.mapError(err)
}

func (s *GRPCClient) ExportEntries(ctx context.Context) (Export, error) {
	if err := s.requireLogin(); err != nil {
		return Export{}, err
	}
	resp, err := s.client.ExportEntries(ctx, &rpc.ExportEntriesRequest{})
	if err != nil {
		return Export{}, s.mapError(err)
	}
	return Export{URL: resp.URL, Count: resp.Count, ExpiresAt: resp.ExpiresAt}, nil
}

func (s *GRPCClient) requireLogin() error {
	if access, _ := s.tokens(); access == "" {
		return ErrNotLoggedIn
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.AlreadyExists:
		return common.ErrorAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrInvalidEntry, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func ToWire(e models.Entry) rpc.Entry {
	return rpc.Entry{
		ID:               e.ID.String(),
		Date:             e.Date,
		UpdatedAt:        e.UpdatedAt,
		Mood:             int(e.Mood),
		OriginalText:     e.OriginalText,
		ReformulatedText: e.ReformulatedText,
		EmpathyText:      e.EmpathyText,
		NextStep:         e.NextStep,
	}
}

func FromWire(w rpc.Entry) (models.Entry, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return models.Entry{}, err
	}
	return models.Entry{
		ID:               id,
		Date:             w.Date,
		UpdatedAt:        w.UpdatedAt,
		Mood:             models.Mood(w.Mood),
		OriginalText:     w.OriginalText,
		ReformulatedText: w.ReformulatedText,
		EmpathyText:      w.EmpathyText,
		NextStep:         w.NextStep,
	}, nil
}
