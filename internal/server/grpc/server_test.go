package grpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gokigennote/gokigen/internal/common"
	"github.com/gokigennote/gokigen/internal/logging"
	"github.com/gokigennote/gokigen/internal/rpc"
	"github.com/gokigennote/gokigen/internal/server/models"
	"github.com/gokigennote/gokigen/internal/server/services"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

type fakeUsers struct {
	UserService
	tokens   map[string]string
	tokenErr error

	registered *models.User
	regErr     error
	loginID    string
	loginPair  *services.TokenPair
	loginErr   error
	refreshOut *services.TokenPair
	refreshErr error
}

func (f *fakeUsers) Register(context.Context, string, []byte, []byte) (*models.User, error) {
	return f.registered, f.regErr
}

func (f *fakeUsers) GetSalt(context.Context, string) ([]byte, error) { return []byte("salt"), nil }

func (f *fakeUsers) Login(context.Context, string, []byte) (string, *services.TokenPair, error) {
	return f.loginID, f.loginPair, f.loginErr
}

func (f *fakeUsers) RefreshToken(context.Context, string) (*services.TokenPair, error) {
	return f.refreshOut, f.refreshErr
}

func (f *fakeUsers) UserIDFromToken(token string) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	id, ok := f.tokens[token]
	if !ok {
		return "", common.ErrInvalidToken
	}
	return id, nil
}

type fakeEntries struct {
	EntryService
	saved    []*models.Entry
	savedFor string
	saveErr  error
	page     *services.Page
	pageErr  error
	migrated []*models.Entry
}

func (f *fakeEntries) Save(_ context.Context, userID string, e *models.Entry) error {
	f.savedFor = userID
	f.saved = append(f.saved, e)
	return f.saveErr
}

func (f *fakeEntries) LoadPage(context.Context, string, int, string) (*services.Page, error) {
	return f.page, f.pageErr
}

func (f *fakeEntries) Delete(context.Context, string, string) error { return nil }

func (f *fakeEntries) DeleteAll(context.Context, string) (int64, error) { return 3, nil }

func (f *fakeEntries) BatchMigrate(_ context.Context, _ string, entries []*models.Entry) (int, error) {
	f.migrated = entries
	return len(entries), nil
}

type fakeExports struct {
	out *services.Export
	err error
}

func (f *fakeExports) Export(context.Context, string) (*services.Export, error) { return f.out, f.err }

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]string
}

func (r *recordingObserver) ObserveRPC(method, code string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]string{}
	}
	r.calls[method] = code
}

func (r *recordingObserver) code(method string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

type harness struct {
	client   rpc.JournalServiceClient
	users    *fakeUsers
	entries  *fakeEntries
	exports  *fakeExports
	observer *recordingObserver
}

func newHarness(t *testing.T, withExports bool) *harness {
	t.Helper()
	h := &harness{
		users:    &fakeUsers{tokens: map[string]string{"good": "u1"}},
		entries:  &fakeEntries{},
		exports:  &fakeExports{},
		observer: &recordingObserver{},
	}
	var xs ExportService
	if withExports {
		xs = h.exports
	}
	s := NewGRPCServer("bufnet", logging.Nop(), h.users, h.entries, xs, h.observer)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	h.client = rpc.NewJournalServiceClient(conn)
	return h
}

func authed(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)
}
