package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gokigennote/gokigen/internal/client/models"
	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/rpc"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type fakeRPC struct {
	rpc.JournalServiceClient

	lastRefreshReq *rpc.RefreshTokenRequest
	lastLoginReq   *rpc.LoginRequest
	lastRegister   *rpc.RegisterRequest
	lastSave       *rpc.SaveEntryRequest
	lastLoad       *rpc.LoadPageRequest
	lastDelete     *rpc.DeleteEntryRequest
	lastMigrate    *rpc.BatchMigrateRequest

	refreshResp *rpc.RefreshTokenResponse
	refreshErr  error
	pingResp    *rpc.PingResponse
	pingErr     error
	saltResp    *rpc.GetSaltResponse
	saltErr     error
	loginResp   *rpc.LoginResponse
	loginErr    error
	registerErr error
	saveErr     error
	loadResp    *rpc.LoadPageResponse
	loadErr     error
	exportResp  *rpc.ExportEntriesResponse
}

func (f *fakeRPC) RefreshToken(_ context.Context, in *rpc.RefreshTokenRequest, _ ...grpc.CallOption) (*rpc.RefreshTokenResponse, error) {
	f.lastRefreshReq = in
	return f.refreshResp, f.refreshErr
}
func (f *fakeRPC) Ping(context.Context, *rpc.PingRequest, ...grpc.CallOption) (*rpc.PingResponse, error) {
	return f.pingResp, f.pingErr
}
func (f *fakeRPC) GetSalt(context.Context, *rpc.GetSaltRequest, ...grpc.CallOption) (*rpc.GetSaltResponse, error) {
	return f.saltResp, f.saltErr
}
func (f *fakeRPC) Login(_ context.Context, in *rpc.LoginRequest, _ ...grpc.CallOption) (*rpc.LoginResponse, error) {
	f.lastLoginReq = in
	return f.loginResp, f.loginErr
}
func (f *fakeRPC) Register(_ context.Context, in *rpc.RegisterRequest, _ ...grpc.CallOption) (*rpc.RegisterResponse, error) {
	f.lastRegister = in
	return &rpc.RegisterResponse{}, f.registerErr
}
func (f *fakeRPC) SaveEntry(_ context.Context, in *rpc.SaveEntryRequest, _ ...grpc.CallOption) (*rpc.SaveEntryResponse, error) {
	f.lastSave = in
	return &rpc.SaveEntryResponse{}, f.saveErr
}
func (f *fakeRPC) LoadPage(_ context.Context, in *rpc.LoadPageRequest, _ ...grpc.CallOption) (*rpc.LoadPageResponse, error) {
	f.lastLoad = in
	return f.loadResp, f.loadErr
}
func (f *fakeRPC) DeleteEntry(_ context.Context, in *rpc.DeleteEntryRequest, _ ...grpc.CallOption) (*rpc.DeleteEntryResponse, error) {
	f.lastDelete = in
	return &rpc.DeleteEntryResponse{}, nil
}
func (f *fakeRPC) BatchMigrate(_ context.Context, in *rpc.BatchMigrateRequest, _ ...grpc.CallOption) (*rpc.BatchMigrateResponse, error) {
	f.lastMigrate = in
	return &rpc.BatchMigrateResponse{Migrated: len(in.Entries)}, nil
}
func (f *fakeRPC) ExportEntries(context.Context, *rpc.ExportEntriesRequest, ...grpc.CallOption) (*rpc.ExportEntriesResponse, error) {
	return f.exportResp, nil
}

func loggedIn(f *fakeRPC) *GRPCClient {
	return &GRPCClient{client: f, accessToken: "A", refreshToken: "R"}
}

func TestInterceptor_RefreshesTokenOnExpiredAndRetries(t *testing.T) {
	f := &fakeRPC{refreshResp: &rpc.RefreshTokenResponse{AccessToken: "A2", RefreshToken: "R2"}}
	c := &GRPCClient{client: f, accessToken: "A1", refreshToken: "R1"}

	calls := 0
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(common.AccessTokenHeaderName)
		require.Len(t, toks, 1)
		if calls == 1 {
			require.Equal(t, "A1", toks[0])
			return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		require.Equal(t, "A2", toks[0])
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), rpc.MethodSaveEntry, nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	access, refresh := c.tokens()
	require.Equal(t, "A2", access)
	require.Equal(t, "R2", refresh)
	require.Equal(t, "R1", f.lastRefreshReq.RefreshToken)
}

func TestInterceptor_PublicMethodsCarryNoToken(t *testing.T) {
	c := &GRPCClient{accessToken: "A"}
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccessTokenHeaderName))
		return nil
	}
	require.NoError(t, c.accessTokenInterceptor(context.Background(), rpc.MethodLogin, nil, nil, nil, invoker))
}

func TestInterceptor_NoRefreshWithoutRefreshToken(t *testing.T) {
	f := &fakeRPC{}
	c := &GRPCClient{client: f, accessToken: "A1"}
	invoker := func(context.Context, string, any, any, *grpc.ClientConn, ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}
	require.Error(t, c.accessTokenInterceptor(context.Background(), rpc.MethodLoadPage, nil, nil, nil, invoker))
	require.Nil(t, f.lastRefreshReq)
}

func TestInterceptor_OtherErrorsPassThrough(t *testing.T) {
	f := &fakeRPC{}
	c := &GRPCClient{client: f, accessToken: "X", refreshToken: "R"}
	for _, st := range []error{
		status.Error(codes.Internal, "boom"),
		status.Error(codes.Unauthenticated, "some other reason"),
	} {
		invoker := func(context.Context, string, any, any, *grpc.ClientConn, ...grpc.CallOption) error { return st }
		require.Error(t, c.accessTokenInterceptor(context.Background(), rpc.MethodLoadPage, nil, nil, nil, invoker))
	}
	require.Nil(t, f.lastRefreshReq)
}

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.ErrorIs(t, c.mapError(status.Error(codes.Unauthenticated, "x")), ErrUnauthorized)
	require.ErrorIs(t, c.mapError(status.Error(codes.PermissionDenied, "x")), ErrUnauthorized)
	require.ErrorIs(t, c.mapError(status.Error(codes.Unavailable, "x")), common.ErrRemoteUnavailable)
	require.ErrorIs(t, c.mapError(status.Error(codes.DeadlineExceeded, "x")), ErrUnavailable)
	require.ErrorIs(t, c.mapError(status.Error(codes.NotFound, "x")), common.ErrorNotFound)
	require.ErrorIs(t, c.mapError(status.Error(codes.InvalidArgument, "x")), common.ErrInvalidEntry)
	require.ErrorContains(t, c.mapError(errors.New("plain")), "rpc error:")
	require.NoError(t, c.mapError(nil))
}

func TestPing(t *testing.T) {
	require.NoError(t, (&GRPCClient{client: &fakeRPC{pingResp: &rpc.PingResponse{Status: "OK"}}}).Ping(context.Background()))

	c := &GRPCClient{client: &fakeRPC{pingResp: &rpc.PingResponse{Status: "NOT_OK"}}}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)

	c = &GRPCClient{client: &fakeRPC{pingErr: status.Error(codes.Unavailable, "down")}}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestAuthCalls(t *testing.T) {
	f := &fakeRPC{
		saltResp:  &rpc.GetSaltResponse{Salt: []byte{1, 2, 3}},
		loginResp: &rpc.LoginResponse{UserID: "u1", AccessToken: "A", RefreshToken: "R"},
	}
	c := &GRPCClient{client: f}
	ctx := context.Background()

	salt, err := c.GetSalt(ctx, "u")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, salt)

	userID, err := c.Login(ctx, "u", []byte{9})
	require.NoError(t, err)
	require.Equal(t, "u1", userID)
	require.Equal(t, []byte{9}, f.lastLoginReq.Verifier)
	access, _ := c.tokens()
	require.Equal(t, "A", access)

	c.Logout()
	access, refresh := c.tokens()
	require.Empty(t, access)
	require.Empty(t, refresh)

	f.registerErr = status.Error(codes.PermissionDenied, "no")
	require.ErrorIs(t, c.Register(ctx, "u", []byte{1}, []byte{2}), ErrUnauthorized)
	require.Equal(t, []byte{2}, f.lastRegister.Verifier)
}

func TestEntryCalls_RequireLogin(t *testing.T) {
	c := &GRPCClient{client: &fakeRPC{}}
	ctx := context.Background()

	require.ErrorIs(t, c.SaveEntry(ctx, models.Entry{}, "u1"), ErrNotLoggedIn)
	_, _, err := c.LoadPage(ctx, "u1", 10, "")
	require.ErrorIs(t, err, ErrNotLoggedIn)
	require.ErrorIs(t, c.DeleteAll(ctx, "u1"), ErrNotLoggedIn)
}

func TestEntryCalls_ConvertWireForm(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2025, 11, 19, 9, 0, 0, 0, time.UTC)
	e := models.NewEntry(day, models.MoodSad, "疲れた")
	e.EmpathyText = "e"

	f := &fakeRPC{loadResp: &rpc.LoadPageResponse{Entries: []rpc.Entry{ToWire(e)}, NextCursor: "c2"}}
	c := loggedIn(f)

	require.NoError(t, c.SaveEntry(ctx, e, "u1"))
	require.Equal(t, e.ID.String(), f.lastSave.Entry.ID)
	require.Equal(t, -1, f.lastSave.Entry.Mood)

	page, next, err := c.LoadPage(ctx, "u1", 30, "c1")
	require.NoError(t, err)
	require.Equal(t, []models.Entry{e}, page)
	require.Equal(t, "c2", next)
	require.Equal(t, &rpc.LoadPageRequest{Limit: 30, Cursor: "c1"}, f.lastLoad)

	require.NoError(t, c.DeleteEntry(ctx, e.ID, "u1"))
	require.Equal(t, e.ID.String(), f.lastDelete.ID)

	require.NoError(t, c.BatchMigrate(ctx, []models.Entry{e, e}, "u1"))
	require.Len(t, f.lastMigrate.Entries, 2)
}

func TestLoadPage_BadIDIsDecodeFailure(t *testing.T) {
	f := &fakeRPC{loadResp: &rpc.LoadPageResponse{Entries: []rpc.Entry{{ID: "nope"}}}}
	_, _, err := loggedIn(f).LoadPage(context.Background(), "u1", 30, "")
	require.ErrorIs(t, err, common.ErrDecodeFailure)
}

func TestSaveEntry_MapsError(t *testing.T) {
	f := &fakeRPC{saveErr: status.Error(codes.Unavailable, "x")}
	err := loggedIn(f).SaveEntry(context.Background(), models.NewEntry(time.Now(), 0, "x"), "u1")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestExportEntries(t *testing.T) {
	exp := time.Date(2025, 11, 19, 9, 15, 0, 0, time.UTC)
	f := &fakeRPC{exportResp: &rpc.ExportEntriesResponse{URL: "https://dl", Count: 3, ExpiresAt: exp}}
	got, err := loggedIn(f).ExportEntries(context.Background())
	require.NoError(t, err)
	require.Equal(t, Export{URL: "https://dl", Count: 3, ExpiresAt: exp}, got)
}

func TestFromWire_RoundTrip(t *testing.T) {
	e := models.NewEntry(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), models.MoodHappy, "hi")
	e.ID = uuid.MustParse("6f1c1e0e-8f49-4d0e-9f57-2d1c3a0c9f11")
	back, err := FromWire(ToWire(e))
	require.NoError(t, err)
	require.Equal(t, e, back)
}
